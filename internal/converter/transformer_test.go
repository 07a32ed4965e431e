package converter

import (
	"testing"

	"github.com/ginjaninja78/OFX-to-CSV-conversion/internal/config"
	"github.com/ginjaninja78/OFX-to-CSV-conversion/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply(t *testing.T) {
	tests := []struct {
		name   string
		value  string
		action config.TransformationAction
		want   string
	}{
		{"prepend", "123", config.TransformationAction{Type: "prepend_string", Value: "A"}, "A123"},
		{"append", "123", config.TransformationAction{Type: "append_string", Value: "-00"}, "123-00"},
		{"trim", "  x  ", config.TransformationAction{Type: "trim"}, "x"},
		{"trim left chars", "000120", config.TransformationAction{Type: "trim_left", Value: "0"}, "120"},
		{"uppercase", "Store", config.TransformationAction{Type: "uppercase"}, "STORE"},
		{"lowercase", "Store", config.TransformationAction{Type: "lowercase"}, "store"},
		{"title case", "PADARIA CENTRAL", config.TransformationAction{Type: "title_case"}, "Padaria Central"},
		{"replace", "a-b-c", config.TransformationAction{Type: "replace", Find: "-", Value: "_"}, "a_b_c"},
		{"regex replace", "PIX 12345 JOAO", config.TransformationAction{Type: "regex_replace", Find: `\d+ `, Value: ""}, "PIX JOAO"},
		{"substring", "São Paulo", config.TransformationAction{Type: "substring", Value: "0,3"}, "São"},
		{"substring past end", "abc", config.TransformationAction{Type: "substring", Value: "1,10"}, "bc"},
		{"pad zeros", "123", config.TransformationAction{Type: "pad_zeros_to_length", Value: "8"}, "00000123"},
		{"remove leading zeros", "000", config.TransformationAction{Type: "remove_leading_zeros"}, "0"},
		{"lookup hit", "DEBIT", config.TransformationAction{Type: "lookup", LookupTable: map[string]string{"DEBIT": "Debito"}}, "Debito"},
		{"lookup miss", "XFER", config.TransformationAction{Type: "lookup", LookupTable: map[string]string{"DEBIT": "Debito"}}, "XFER"},
		{"lookup default", "XFER", config.TransformationAction{Type: "lookup_with_default", Value: "Outro"}, "Outro"},
		{"empty default", " ", config.TransformationAction{Type: "if_empty_use_default", Value: "N/A"}, "N/A"},
		{"extract digits", "ABC-123-DEF-456", config.TransformationAction{Type: "extract_digits"}, "123456"},
		{"normalize whitespace", "  Posto   Ipiranga ", config.TransformationAction{Type: "normalize_whitespace"}, "Posto Ipiranga"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := NewTransformer([]config.TransformationRule{{Field: "Name", Actions: []config.TransformationAction{tt.action}}})
			require.NoError(t, err)

			got, err := tr.Transform("Name", tt.value, nil)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewTransformer_Errors(t *testing.T) {
	_, err := NewTransformer([]config.TransformationRule{{
		Field:   "Name",
		Actions: []config.TransformationAction{{Type: "shout"}},
	}})
	assert.ErrorContains(t, err, "unknown transformation type: shout")

	_, err = NewTransformer([]config.TransformationRule{{
		Field:   "Memo",
		Actions: []config.TransformationAction{{Type: "regex_replace", Find: "("}},
	}})
	assert.ErrorContains(t, err, "invalid regex pattern")
}

func TestTransform_BadParameter(t *testing.T) {
	tr, err := NewTransformer([]config.TransformationRule{{
		Field:   "ID",
		Actions: []config.TransformationAction{{Type: "pad_zeros_to_length", Value: "ten"}},
	}})
	require.NoError(t, err)

	_, err = tr.Transform("ID", "1", nil)

	assert.ErrorContains(t, err, "transformation 'pad_zeros_to_length' failed")
}

func TestTransformTransaction(t *testing.T) {
	tr, err := NewTransformer([]config.TransformationRule{
		{Field: "Type", Actions: []config.TransformationAction{
			{Type: "lookup", LookupTable: map[string]string{"DEBIT": "Debito"}},
		}},
		{Field: "Name", Actions: []config.TransformationAction{
			{Type: "normalize_whitespace"},
			{Type: "uppercase"},
		}},
		{Field: "Memo", Actions: []config.TransformationAction{
			{Type: "if_empty_use_field", Value: "Name"},
		}},
	})
	require.NoError(t, err)

	txn := types.Transaction{Type: "DEBIT", Date: "2023-01-01", Amount: -50.5, ID: "T1", Name: " Padaria   Central "}
	require.NoError(t, tr.TransformTransaction(&txn))

	assert.Equal(t, types.Transaction{
		Type:   "Debito",
		Date:   "2023-01-01",
		Amount: -50.5,
		ID:     "T1",
		Name:   "PADARIA CENTRAL",
		Memo:   " Padaria   Central ",
	}, txn)
}

func TestTransformStatement_NoRules(t *testing.T) {
	tr, err := NewTransformer(nil)
	require.NoError(t, err)
	stmt := &types.Statement{Transactions: []types.Transaction{{Name: "  x "}}}

	require.NoError(t, tr.TransformStatement(stmt))

	assert.Equal(t, "  x ", stmt.Transactions[0].Name)
}
