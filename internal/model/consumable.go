package model

import (
	"strconv"
	"strings"
)

// ConsumableRecord is one row of the medical_consumables import table.
// Rows are read once per run and never mutated afterwards.
type ConsumableRecord struct {
	ID                           int64  `json:"id"`
	ConsumableCode               string `json:"consumable_code"`
	SerialNumber                 string `json:"serial_number"`
	Category                     string `json:"consumable_category"`
	EnterpriseName               string `json:"enterprise_name"`
	Model                        string `json:"model"`
	Specification                string `json:"specification"`
	SpecModelID                  string `json:"spec_model_id"`
	SingleProductName            string `json:"single_product_name"`
	SingleProductCode            string `json:"single_product_code"`
	Registrant                   string `json:"registrant"`
	RegistrationCertNo           string `json:"registration_cert_no"`
	RegistrationRecordNo         string `json:"registration_record_no"`
	OldRegistrationRecordNo      string `json:"old_registration_record_no"`
	OriginalRegistrationRecordNo string `json:"original_registration_record_no"`
	RegistrationProductName      string `json:"registration_product_name"`
	OldRegistrationProductName   string `json:"old_registration_product_name"`
	UDIDI                        string `json:"udi_di"`
	Status                       int    `json:"status"`
}

// UniqueID is the id the CRM keys the object on: "code-serial" when both
// parts are present, otherwise the numeric row id.
func (r ConsumableRecord) UniqueID() string {
	code := strings.TrimSpace(r.ConsumableCode)
	serial := strings.TrimSpace(r.SerialNumber)
	if code != "" && serial != "" {
		return code + "-" + serial
	}
	if r.ID == 0 {
		return ""
	}
	return strconv.FormatInt(r.ID, 10)
}
