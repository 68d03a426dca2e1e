package enums

import "fmt"

// BillableSourceType records where a billable item's cost originated.
type BillableSourceType string

const (
	BillableSourcePurchaseOrder BillableSourceType = "purchase_order"
	BillableSourceVendorInvoice BillableSourceType = "vendor_invoice"
	BillableSourceManual        BillableSourceType = "manual"
)

var validBillableSourceTypes = []BillableSourceType{
	BillableSourcePurchaseOrder,
	BillableSourceVendorInvoice,
	BillableSourceManual,
}

// IsValid reports whether the value is a known BillableSourceType.
func (b BillableSourceType) IsValid() bool {
	for _, candidate := range validBillableSourceTypes {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseBillableSourceType converts raw input into a BillableSourceType.
func ParseBillableSourceType(value string) (BillableSourceType, error) {
	for _, candidate := range validBillableSourceTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid billable source type %q", value)
}

// BillableItemStatus tracks whether a billable item has been invoiced.
type BillableItemStatus string

const (
	BillableItemStatusPending  BillableItemStatus = "pending"
	BillableItemStatusInvoiced BillableItemStatus = "invoiced"
)

var validBillableItemStatuses = []BillableItemStatus{
	BillableItemStatusPending,
	BillableItemStatusInvoiced,
}

// IsValid reports whether the value is a known BillableItemStatus.
func (b BillableItemStatus) IsValid() bool {
	for _, candidate := range validBillableItemStatuses {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseBillableItemStatus converts raw input into a BillableItemStatus.
func ParseBillableItemStatus(value string) (BillableItemStatus, error) {
	for _, candidate := range validBillableItemStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid billable item status %q", value)
}
