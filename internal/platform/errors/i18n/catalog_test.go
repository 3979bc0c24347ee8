package i18n

import "testing"

func TestGetCatalogFallback(t *testing.T) {
	base := GetCatalog("en-US")
	if base == nil {
		t.Fatal("expected base catalog")
	}
	fallback := GetCatalog("missing-locale")
	if fallback != base {
		t.Fatal("expected fallback to en-US catalog")
	}
}

func TestResolveLocale(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{header: "", want: "en-US"},
		{header: "pt-BR,pt;q=0.9", want: "pt-BR"},
		{header: "pt", want: "pt-BR"},
		{header: "en-GB", want: "en-US"},
		{header: "ja", want: "en-US"},
	}
	for _, tc := range tests {
		if got := ResolveLocale(tc.header); got != tc.want {
			t.Fatalf("ResolveLocale(%q) = %q, want %q", tc.header, got, tc.want)
		}
	}
}

func TestFormatFallbacks(t *testing.T) {
	cat := NewCatalog("test", map[Code]string{
		"code": "hello {{.Name}}",
	})

	if cat.Format("unknown", nil) != "unknown" {
		t.Fatal("expected code fallback when template missing")
	}
	if cat.Format("code", nil) != "hello <no value>" {
		t.Fatal("expected template to render missing metadata")
	}
}

func TestFormatRendersMetadata(t *testing.T) {
	got := GetCatalog("en-US").Format(CodeRoomNotFound, map[string]string{"RoomID": "r1"})
	if got != "Room r1 does not exist" {
		t.Fatalf("format = %q", got)
	}
}

func TestCatalogsCoverSameCodes(t *testing.T) {
	for code := range enUSMessages {
		if _, ok := ptBRMessages[code]; !ok {
			t.Fatalf("pt-BR catalog missing %s", code)
		}
	}
}

func TestRegisterCatalog(t *testing.T) {
	custom := NewCatalog("custom", map[Code]string{"code": "ok"})
	RegisterCatalog("custom", custom)
	if got := GetCatalog("custom"); got != custom {
		t.Fatal("expected registered catalog")
	}
}

func TestLocalesIncludeBuiltins(t *testing.T) {
	locales := Locales()
	seen := map[string]bool{}
	for _, locale := range locales {
		seen[locale] = true
	}
	if !seen[BaseLocale] || !seen["pt-BR"] {
		t.Fatalf("locales = %v", locales)
	}
	codes := GetCatalog(BaseLocale).Codes()
	if len(codes) != len(enUSMessages) {
		t.Fatalf("codes = %d, want %d", len(codes), len(enUSMessages))
	}
	for i := 1; i < len(codes); i++ {
		if codes[i-1] > codes[i] {
			t.Fatalf("codes not sorted: %v", codes)
		}
	}
}
