package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOpenInvoicesCSV(t *testing.T) {
	input := `number,customer_id,customer_name,outstanding
INV-4481,cust-1,ACME Corp,1200.00
INV-4490,cust-2,Globex,350.25`

	invoices, err := parseOpenInvoicesCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, invoices, 2)

	assert.Equal(t, "INV-4481", invoices[0].Number)
	assert.Equal(t, "cust-1", invoices[0].CustomerID)
	assert.Equal(t, "ACME Corp", invoices[0].CustomerName)
	assert.Equal(t, "1200.00", invoices[0].Outstanding.StringFixed(2))
	assert.NotEmpty(t, invoices[0].ID)

	assert.Equal(t, "INV-4490", invoices[1].Number)
	assert.Equal(t, "350.25", invoices[1].Outstanding.StringFixed(2))
}

func TestParseOpenInvoicesCSV_NoHeader(t *testing.T) {
	input := "INV-1,cust-1,ACME Corp,99.00\n"

	invoices, err := parseOpenInvoicesCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, "INV-1", invoices[0].Number)
}

func TestParseOpenInvoicesCSV_BadAmount(t *testing.T) {
	input := "INV-1,cust-1,ACME Corp,not-a-number\n"

	_, err := parseOpenInvoicesCSV(strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid outstanding amount")
}

func TestParseOpenInvoicesCSV_MissingNumber(t *testing.T) {
	input := ",cust-1,ACME Corp,99.00\n"

	_, err := parseOpenInvoicesCSV(strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing invoice number")
}

func TestParseOpenInvoicesCSV_WrongColumnCount(t *testing.T) {
	input := "INV-1,cust-1\n"

	_, err := parseOpenInvoicesCSV(strings.NewReader(input))
	assert.Error(t, err)
}

func TestParseOpenInvoicesCSV_Empty(t *testing.T) {
	invoices, err := parseOpenInvoicesCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, invoices)
}
