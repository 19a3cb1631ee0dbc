package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateConfigEntry(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr bool
	}{
		{"min transitions ok", "generate.min-transitions", "4", false},
		{"max transitions ok", "generate.max-transitions", "6", false},
		{"transitions not a number", "generate.min-transitions", "six", true},
		{"transitions below one", "generate.max-transitions", "0", true},
		{"windows ok", "generate.swath-windows", "400:425,425:450", false},
		{"windows overlapping", "generate.swath-windows", "400:425,424:450", true},
		{"windows malformed", "generate.swath-windows", "400-425", true},
		{"unknown key", "generate.mz-threshold", "0.05", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateConfigEntry(tt.key, tt.value)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateConfigEntry_UnknownKeyNamesKnownOnes(t *testing.T) {
	err := validateConfigEntry("nope", "1")
	assert.ErrorContains(t, err, "generate.min-transitions")
	assert.ErrorContains(t, err, "generate.swath-windows")
}
