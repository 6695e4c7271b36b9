package payment

import (
	"testing"

	"bistro-checkout/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidCPF(t *testing.T) {
	tests := []struct {
		name  string
		cpf   string
		valid bool
	}{
		{name: "Valid", cpf: "52998224725", valid: true},
		{name: "Second valid document", cpf: "11144477735", valid: true},
		{name: "Wrong first check digit", cpf: "52998224715", valid: false},
		{name: "Wrong second check digit", cpf: "52998224726", valid: false},
		{name: "All equal digits", cpf: "11111111111", valid: false},
		{name: "Too short", cpf: "5299822472", valid: false},
		{name: "Non numeric", cpf: "5299822472a", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidCPF(tt.cpf))
		})
	}
}

func TestNormalizeCPF(t *testing.T) {
	cpf, err := NormalizeCPF("529.982.247-25")
	require.NoError(t, err)
	assert.Equal(t, "52998224725", cpf)

	_, err = NormalizeCPF("529/982/247-25")
	assert.Equal(t, model.ErrInvalidCPF, err)

	_, err = NormalizeCPF("000.000.000-00")
	assert.Equal(t, model.ErrInvalidCPF, err)
}
