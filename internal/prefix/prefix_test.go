package prefix

import "testing"

func mustParse(t *testing.T, s string) Prefix {
	t.Helper()
	p, err := ParseCIDR(s)
	if err != nil {
		t.Fatalf("ParseCIDR(%q): %v", s, err)
	}
	return p
}

// Order is total: exactly one of <, ==, > holds for every pair.
func TestOrderTotalAndExclusive(t *testing.T) {
	pairs := [][2]string{
		{"10.0.0.0/8", "10.0.0.0/16"},
		{"10.0.0.0/16", "10.1.0.0/16"},
		{"192.168.0.0/24", "192.168.0.0/24"},
		{"0.0.0.0/0", "255.255.255.255/32"},
	}
	for _, pair := range pairs {
		a := mustParse(t, pair[0])
		b := mustParse(t, pair[1])

		count := 0
		if a.Less(b) {
			count++
		}
		if a.Equal(b) {
			count++
		}
		if a.Greater(b) {
			count++
		}
		if count != 1 {
			t.Fatalf("exactly one of Less/Equal/Greater must hold for %v, %v; got %d", a, b, count)
		}
	}
}

func TestContainsImpliesNetmaskOrder(t *testing.T) {
	wide := mustParse(t, "10.0.0.0/8")
	narrow := mustParse(t, "10.1.2.0/24")

	if !narrow.Contains(wide) {
		t.Fatalf("expected %v to be contained by %v", narrow, wide)
	}
	if wide.Netmask > narrow.Netmask {
		t.Fatalf("containing prefix must not have a stricter netmask than the contained one")
	}
}

func TestBinaryStringRoundTrip(t *testing.T) {
	p := mustParse(t, "172.16.32.0/20")
	if got := FromBinaryString(p.BinaryString()); !got.Equal(p) {
		t.Fatalf("round trip mismatch: got %v, want %v", got, p)
	}
}

func TestSubnetsSplitExactly(t *testing.T) {
	p := mustParse(t, "10.0.0.0/23")
	halves := p.Subnets(24)
	if len(halves) != 2 {
		t.Fatalf("expected 2 halves, got %d", len(halves))
	}
	if halves[0].String() != "10.0.0.0/24" || halves[1].String() != "10.0.1.0/24" {
		t.Fatalf("unexpected halves: %v, %v", halves[0], halves[1])
	}
}

func TestParseCIDRMalformedYieldsZero(t *testing.T) {
	p, err := ParseCIDR("not-a-prefix")
	if err == nil {
		t.Fatal("expected error for malformed CIDR")
	}
	if !p.Equal(Zero) {
		t.Fatalf("expected Zero fallback, got %v", p)
	}
}
