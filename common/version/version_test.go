package version

import "testing"

func TestIsCompatible(t *testing.T) {
	if !IsCompatible(CURRENT_VERSION.String()) {
		t.Fatal("current version must be compatible with itself")
	}
	if IsCompatible("0.9.0") {
		t.Fatal("0.9.0 predates the minimum client version")
	}
	if IsCompatible("2.0.0") {
		t.Fatal("a different major version is incompatible")
	}
	if IsCompatible("not a version") {
		t.Fatal("garbage must not parse")
	}
}
