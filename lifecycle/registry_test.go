package lifecycle

import "testing"

func TestLocalFactoriesQualify(t *testing.T) {
	local := NewLocalFactories()
	local.Register("CustomerControllerTest", "loadCustomers", "loadOrders")

	test := TestRef{Class: "CustomerControllerTest", Method: "testCreate"}

	if got := local.Qualify(test, "loadCustomers"); got != "CustomerControllerTest::loadCustomers" {
		t.Errorf("expected qualified factory, got %q", got)
	}
	if got := local.Qualify(test, "CustomerFixture"); got != "CustomerFixture" {
		t.Errorf("expected unqualified factory, got %q", got)
	}

	other := TestRef{Class: "OrderControllerTest", Method: "testCreate"}
	if got := local.Qualify(other, "loadCustomers"); got != "loadCustomers" {
		t.Errorf("local factories must not leak across classes, got %q", got)
	}
}

func TestLocalFactoriesNilSafe(t *testing.T) {
	var local *LocalFactories
	test := TestRef{Class: "CustomerControllerTest"}

	if got := local.Qualify(test, "CustomerFixture"); got != "CustomerFixture" {
		t.Errorf("nil registry should pass factories through, got %q", got)
	}
}

func TestLocalFactoriesList(t *testing.T) {
	local := NewLocalFactories()
	local.Register("CustomerControllerTest", "b", "a")

	got := local.List("CustomerControllerTest")
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("expected sorted [a b], got %v", got)
	}
}
