package ptt

import "testing"

func TestDepGetCPV(t *testing.T) {
	cases := []struct {
		atom string
		want string
	}{
		{"=app-misc/foo-1.2.3", "app-misc/foo-1.2.3"},
		{"=app-misc/foo-1.2.3-r2", "app-misc/foo-1.2.3-r2"},
		{">=dev-libs/bar-2.0", "dev-libs/bar-2.0"},
		{"~sys-apps/baz-0.5_rc1", "sys-apps/baz-0.5_rc1"},
		{"=app-misc/foo-1.2.3:0", "app-misc/foo-1.2.3"},
		{"=app-misc/foo-1.2.3[ssl]", "app-misc/foo-1.2.3"},
		{"app-misc/foo-1.2.3", "app-misc/foo-1.2.3"},
	}
	for _, c := range cases {
		if got := depGetCPV(c.atom); got != c.want {
			t.Errorf("depGetCPV(%q) = %q, want %q", c.atom, got, c.want)
		}
	}
}

func TestPkgSplit(t *testing.T) {
	cases := []struct {
		cpv         string
		wantCP      string
		wantVersion string
	}{
		{"app-misc/foo-1.2.3", "app-misc/foo", "1.2.3"},
		{"app-misc/foo-1.2.3-r2", "app-misc/foo", "1.2.3-r2"},
		{"dev-lang/python-3.12.1", "dev-lang/python", "3.12.1"},
		{"sys-apps/baz-0.5_rc1", "sys-apps/baz", "0.5_rc1"},
		{"net-misc/curl-8.5.0_p1-r1", "net-misc/curl", "8.5.0_p1-r1"},
		{"app-editors/gvim-9.1a", "app-editors/gvim", "9.1a"},
	}
	for _, c := range cases {
		cp, version, err := pkgSplit(c.cpv)
		if err != nil {
			t.Errorf("pkgSplit(%q) returned error: %v", c.cpv, err)
			continue
		}
		if cp != c.wantCP || version != c.wantVersion {
			t.Errorf("pkgSplit(%q) = (%q, %q), want (%q, %q)", c.cpv, cp, version, c.wantCP, c.wantVersion)
		}
	}
}

func TestPkgSplitNoVersion(t *testing.T) {
	for _, cpv := range []string{"app-misc/foo", "foo"} {
		if _, _, err := pkgSplit(cpv); err == nil {
			t.Errorf("pkgSplit(%q) expected an error", cpv)
		}
	}
}

func TestBaseName(t *testing.T) {
	cp, err := baseName("=app-misc/foo-1.2.3-r1")
	if err != nil {
		t.Fatalf("baseName returned error: %v", err)
	}
	if cp != "app-misc/foo" {
		t.Errorf("baseName = %q, want %q", cp, "app-misc/foo")
	}

	if _, err := baseName("not-an-atom"); err == nil {
		t.Error("baseName accepted an atom without a version")
	}
}
