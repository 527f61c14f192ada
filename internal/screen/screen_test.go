package screen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripRemovesControlSequences(t *testing.T) {
	raw := "\x1b[2J\x1b[1;1H\x1b[32mShip total\x1b[0m      123.45"
	assert.Equal(t, "Ship total      123.45", Strip(raw))
}

func TestStripIdempotent(t *testing.T) {
	inputs := []string{
		"plain text with no sequences",
		"\x1b[31morder 408516\x1b[0m not on file",
		"\x1b[13~",
		"",
	}
	for _, in := range inputs {
		once := Strip(in)
		assert.Equal(t, once, Strip(once))
	}
}

func TestExtractLabeledAmount(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		label  string
		want   string
		wantOK bool
	}{
		{
			name:   "amount after label",
			text:   "... Ship total 123.45 USD ...",
			label:  "Ship total",
			want:   "123.45",
			wantOK: true,
		},
		{
			name:   "amount behind control sequences and padding",
			text:   "\x1b[1;10H Ship total \x1b[7m   1,024.99",
			label:  "Ship total",
			want:   "1",
			wantOK: true,
		},
		{
			name:  "label absent",
			text:  "Order total 123.45",
			label: "Ship total",
		},
		{
			name:  "no digits after label",
			text:  "Ship total abc",
			label: "Ship total",
		},
		{
			name:  "label is case sensitive",
			text:  "ship total 123.45",
			label: "Ship total",
		},
		{
			name:   "zero amount still extracted, caller rejects it",
			text:   "Ship total 0.00",
			label:  "Ship total",
			want:   "0.00",
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractLabeledAmount(tt.text, tt.label)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
