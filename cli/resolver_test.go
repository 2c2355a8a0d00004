package cli

import (
	"reflect"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
)

func TestResolveYAML(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want config
	}{
		{"empty", "", config{}},
		{
			"flat",
			"log-level: debug\nlog_pretty: false\n",
			config{"log-level": "debug", "log-pretty": false},
		},
		{
			"nested",
			"log:\n  level: trace\n  caller: true\nrun:\n  max-depth: 50\n",
			config{"log-level": "trace", "log-caller": true, "run-max-depth": "50"},
		},
		{
			"list",
			"export:\n  - A=1\n  - B=2\n",
			config{"export": []any{"A=1", "B=2"}},
		},
		{"float", "ratio: 1.5\n", config{"ratio": "1.5"}},
		{"invalid", "log-level: [unterminated\n", config{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := resolve(t.Context())(strings.NewReader(tt.yaml))
			if err != nil {
				t.Fatal(err)
			}

			if got := r.(config); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestConfigResolve(t *testing.T) {
	cfg := config{"log-level": "warn"}

	v, err := cfg.Resolve(nil, nil, &kong.Flag{Value: &kong.Value{Name: "log-level"}})
	if err != nil || v != "warn" {
		t.Errorf("Resolve(log-level) = %v, %v", v, err)
	}

	v, err = cfg.Resolve(nil, nil, &kong.Flag{Value: &kong.Value{Name: "log-format"}})
	if err != nil || v != nil {
		t.Errorf("Resolve(log-format) = %v, %v", v, err)
	}
}
