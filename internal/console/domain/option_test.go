package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intp(n int) *int { return &n }

func TestOptionKind_String(t *testing.T) {
	assert.Equal(t, "bool", OptionBool.String())
	assert.Equal(t, "int", OptionInt.String())
	assert.Equal(t, "list", OptionList.String())
	assert.Equal(t, "OptionKind(99)", OptionKind(99).String())
}

func TestOption_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opt     Option
		wantErr bool
	}{
		{
			name: "valid bool",
			opt:  Option{Key: "prefetch", Kind: OptionBool, Default: true},
		},
		{
			name: "valid bounded int",
			opt:  Option{Key: "num_threads", Kind: OptionInt, Default: 2, Min: intp(1), Max: intp(16)},
		},
		{
			name: "valid list",
			opt:  Option{Key: "forward_servers", Kind: OptionList, Default: []string{}},
		},
		{
			name:    "empty key",
			opt:     Option{Kind: OptionBool, Default: true},
			wantErr: true,
		},
		{
			name:    "bool with int default",
			opt:     Option{Key: "x", Kind: OptionBool, Default: 1},
			wantErr: true,
		},
		{
			name:    "int with string default",
			opt:     Option{Key: "x", Kind: OptionInt, Default: "5"},
			wantErr: true,
		},
		{
			name:    "int default below min",
			opt:     Option{Key: "x", Kind: OptionInt, Default: 0, Min: intp(1)},
			wantErr: true,
		},
		{
			name:    "int default above max",
			opt:     Option{Key: "x", Kind: OptionInt, Default: 20, Max: intp(16)},
			wantErr: true,
		},
		{
			name:    "list with scalar default",
			opt:     Option{Key: "x", Kind: OptionList, Default: "a"},
			wantErr: true,
		},
		{
			name:    "unknown kind",
			opt:     Option{Key: "x", Kind: OptionKind(42), Default: nil},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opt.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
