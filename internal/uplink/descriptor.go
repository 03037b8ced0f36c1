package uplink

// Category and parameter keys recognised by the descriptor extractor.
const (
	// CategorySystemInfo is the distinguished category carrying device
	// identity parameters.
	CategorySystemInfo = "SYSTEM_INFO"

	paramCountry      = "COUNTRY"
	paramProduct      = "PRODUCT"
	paramSerialNumber = "SERIAL_NUMBER"
)

// Descriptor is the device-identity summary derived from a snapshot's
// SYSTEM_INFO category. Fields stay empty when the corresponding parameter
// is absent; an empty field is "unknown", never an error.
type Descriptor struct {
	Country      string `json:"country,omitempty"`
	Product      string `json:"product,omitempty"`
	SerialNumber string `json:"serialNumber,omitempty"`
}

// ExtractDescriptor scans every unit's categories for SYSTEM_INFO and copies
// the recognised parameter display values into a Descriptor.
//
// If SYSTEM_INFO appears under more than one unit the later occurrence wins;
// multi-unit systems report the same device identity from each unit, so the
// tie-break is not observable in practice.
func ExtractDescriptor(snap *Snapshot) Descriptor {
	var d Descriptor
	if snap == nil {
		return d
	}

	for _, unit := range snap.Units {
		for _, cat := range unit.Categories {
			if cat.ID != CategorySystemInfo {
				continue
			}
			for _, p := range cat.Parameters {
				switch p.Key {
				case paramCountry:
					d.Country = p.DisplayValue
				case paramProduct:
					d.Product = p.DisplayValue
				case paramSerialNumber:
					d.SerialNumber = p.DisplayValue
				}
			}
		}
	}

	return d
}
