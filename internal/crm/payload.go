package crm

import (
	"strings"

	"github.com/dorian5656/nhsa-crm-sync/internal/model"
)

type directBody struct {
	ObjAPIName     string         `json:"objAPIName"`
	MasterFieldVal MasterFieldVal `json:"masterFieldVal"`
}

// MasterFieldVal is the field schema the ERP ingest endpoint expects for a
// MedicalInsuranceCodeFile object.
type MasterFieldVal struct {
	ConsumablesCategory                    string `json:"consumablesCategory"`
	ConsumablesEnterprise                  string `json:"consumablesEnterprise"`
	ID                                     string `json:"id"`
	MedicalConsumablesCode                 string `json:"medicalConsumablesCode"`
	Model                                  string `json:"model"`
	OldRegistrationFilingCertificateNumber string `json:"oldRegistrationFilingCertificateNumber"`
	OldRegistrationFilingProductName       string `json:"oldRegistrationFilingProductName"`
	OriginalRegistrationFilingNumber       string `json:"originalRegistrationFilingNumber"`
	RegistrantFilingPerson                 string `json:"registrantFilingPerson"`
	RegistrationCertificateNumber          string `json:"registrationCertificateNumber"`
	RegistrationFilingCertificateNumber    string `json:"registrationFilingCertificateNumber"`
	RegistrationFilingProductName          string `json:"registrationFilingProductName"`
	SerialNumber                           string `json:"serialNumber"`
	SingleProductName                      string `json:"singleProductName"`
	SingleProductNumber                    string `json:"singleProductNumber"`
	Specification                          string `json:"specification"`
	SpecificationModelNumber               string `json:"specificationModelNumber"`
	Status                                 int    `json:"status"`
	UDIDI                                  string `json:"udiDi"`
}

// FieldValFromRecord maps an import-table row onto the ERP field schema.
func FieldValFromRecord(rec model.ConsumableRecord) MasterFieldVal {
	status := rec.Status
	if status == 0 {
		status = 1
	}
	return MasterFieldVal{
		ConsumablesCategory:                    rec.Category,
		ConsumablesEnterprise:                  rec.EnterpriseName,
		ID:                                     rec.UniqueID(),
		MedicalConsumablesCode:                 strings.TrimSpace(rec.ConsumableCode),
		Model:                                  rec.Model,
		OldRegistrationFilingCertificateNumber: rec.OldRegistrationRecordNo,
		OldRegistrationFilingProductName:       rec.OldRegistrationProductName,
		OriginalRegistrationFilingNumber:       rec.OriginalRegistrationRecordNo,
		RegistrantFilingPerson:                 rec.Registrant,
		RegistrationCertificateNumber:          rec.RegistrationCertNo,
		RegistrationFilingCertificateNumber:    rec.RegistrationRecordNo,
		RegistrationFilingProductName:          rec.RegistrationProductName,
		SerialNumber:                           strings.TrimSpace(rec.SerialNumber),
		SingleProductName:                      rec.SingleProductName,
		SingleProductNumber:                    rec.SingleProductCode,
		Specification:                          rec.Specification,
		SpecificationModelNumber:               rec.SpecModelID,
		Status:                                 status,
		UDIDI:                                  rec.UDIDI,
	}
}
