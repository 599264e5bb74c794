package crm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dorian5656/nhsa-crm-sync/internal/model"
)

func TestFieldValFromRecord(t *testing.T) {
	rec := model.ConsumableRecord{
		ID:                8,
		ConsumableCode:    "  C8 ",
		SerialNumber:      " S8",
		Category:          "implant",
		EnterpriseName:    "Acme Medical",
		SingleProductName: "stent",
		Status:            2,
	}
	fv := FieldValFromRecord(rec)

	require.Equal(t, "C8-S8", fv.ID)
	require.Equal(t, "C8", fv.MedicalConsumablesCode)
	require.Equal(t, "S8", fv.SerialNumber)
	require.Equal(t, "implant", fv.ConsumablesCategory)
	require.Equal(t, "Acme Medical", fv.ConsumablesEnterprise)
	require.Equal(t, "stent", fv.SingleProductName)
	require.Equal(t, 2, fv.Status)
}

func TestFieldValStatusDefaultsToActive(t *testing.T) {
	fv := FieldValFromRecord(model.ConsumableRecord{ID: 1})
	require.Equal(t, 1, fv.Status)
}
