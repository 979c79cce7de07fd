package testutil

import "github.com/shopspring/decimal"

// Fixed identities for deterministic tests.
const (
	TestCustomerEmail  = "shopper@example.com"
	TestCustomerEmail2 = "other.shopper@example.com"
	TestBusinessID     = "biz_0001"
	TestBusinessID2    = "biz_0002"
)

// Order values straddling the high-value threshold.
var (
	LowOrderValue  = decimal.NewFromInt(40)
	HighOrderValue = decimal.NewFromInt(600)
)
