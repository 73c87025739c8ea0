package mapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAddressStateSource(t *testing.T) {
	tests := []struct {
		name  string
		city  string
		state string
		want  string
	}{
		{name: "state field wins", city: "Perth", state: "Vic", want: StateVIC},
		{name: "invalid state uses city", city: "Perth", state: "N/A", want: StateWA},
		{name: "empty state uses city", city: "Christchurch", state: "", want: StateSI},
		{name: "invalid state and city", city: "#N/A", state: "0", want: StateNSW},
		{name: "invalid state unknown city", city: "Kalbar", state: "", want: StateNSW},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeAddress("1 Main St", tt.city, tt.state, "")
			assert.Equal(t, tt.want, got.State)
		})
	}
}
