package claims

import (
	"errors"
	"testing"
	"time"

	apperrors "github.com/louisbranch/selfcare/internal/platform/errors"
)

func TestSetValuePropagatesFromLinkedPrimary(t *testing.T) {
	m := NewModel()
	m.LoadDefaults(time.Unix(1_700_000_000, 0), "abc123")

	if err := m.SetValue(0, "+237699887766"); err != nil {
		t.Fatalf("set value: %v", err)
	}

	fields := m.Fields()
	if fields[1].Value != "+237699887766" {
		t.Fatalf("expected nickname to follow primary, got %q", fields[1].Value)
	}
	if fields[2].Value != "+237699887766" {
		t.Fatalf("expected name to follow primary, got %q", fields[2].Value)
	}
	if fields[3].Value != "CMR" {
		t.Fatalf("expected unlinked field untouched, got %q", fields[3].Value)
	}
}

func TestSetValueOnMirrorDoesNotPropagate(t *testing.T) {
	m := NewModel()
	m.LoadDefaults(time.Unix(1_700_000_000, 0), "abc123")

	if err := m.SetValue(1, "someone else"); err != nil {
		t.Fatalf("set value: %v", err)
	}

	fields := m.Fields()
	if fields[0].Value != "+237612345678" {
		t.Fatalf("expected primary untouched, got %q", fields[0].Value)
	}
	if fields[2].Value != "+237612345678" {
		t.Fatalf("expected other mirror untouched, got %q", fields[2].Value)
	}
	if fields[1].Value != "someone else" {
		t.Fatalf("expected mirror edited, got %q", fields[1].Value)
	}
}

func TestSetValueUnlinkedPrimaryDoesNotPropagate(t *testing.T) {
	m := NewModel()
	m.LoadDefaults(time.Unix(1_700_000_000, 0), "abc123")

	// Unlink the primary, then edit it.
	if err := m.ToggleLink(0); err != nil {
		t.Fatalf("toggle link: %v", err)
	}
	if err := m.SetValue(0, "+237600000000"); err != nil {
		t.Fatalf("set value: %v", err)
	}

	fields := m.Fields()
	if fields[1].Value != "+237612345678" {
		t.Fatalf("expected mirror untouched after unlink, got %q", fields[1].Value)
	}
}

func TestToggleLinkRejectsIneligibleKey(t *testing.T) {
	m := NewModel()
	m.LoadDefaults(time.Unix(1_700_000_000, 0), "abc123")

	err := m.ToggleLink(5) // iss
	var domainErr *apperrors.Error
	if !errors.As(err, &domainErr) {
		t.Fatalf("expected domain error, got %T", err)
	}
	if domainErr.Code != apperrors.CodeClaimKeyNotLinkable {
		t.Fatalf("expected not linkable code, got %s", domainErr.Code)
	}
}

func TestAddAndRemoveField(t *testing.T) {
	m := NewModel()

	idx := m.AddField()
	if idx != 0 || m.Len() != 1 {
		t.Fatalf("expected one field at index 0, got idx=%d len=%d", idx, m.Len())
	}
	if err := m.SetKey(idx, "scope"); err != nil {
		t.Fatalf("set key: %v", err)
	}
	if err := m.SetValue(idx, "openid"); err != nil {
		t.Fatalf("set value: %v", err)
	}
	if err := m.RemoveField(idx); err != nil {
		t.Fatalf("remove field: %v", err)
	}
	if m.Len() != 0 {
		t.Fatalf("expected empty model, got %d fields", m.Len())
	}

	if err := m.RemoveField(0); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("expected index error, got %v", err)
	}
}

func TestSetKeyRejectsDuplicatePrimary(t *testing.T) {
	m := NewModel()
	m.LoadDefaults(time.Unix(1_700_000_000, 0), "abc123")

	idx := m.AddField()
	if err := m.SetKey(idx, DefaultPrimaryKey); !errors.Is(err, ErrDuplicatePrimary) {
		t.Fatalf("expected duplicate primary error, got %v", err)
	}

	// Renaming the existing primary field to itself is fine.
	if err := m.SetKey(0, DefaultPrimaryKey); err != nil {
		t.Fatalf("rename primary to itself: %v", err)
	}
}

func TestSetTypeValidation(t *testing.T) {
	m := NewModel()
	idx := m.AddField()

	if err := m.SetType(idx, TypeBoolean); err != nil {
		t.Fatalf("set type: %v", err)
	}
	if err := m.SetType(idx, FieldType("blob")); err == nil {
		t.Fatal("expected error for unknown type tag")
	}
}

func TestCoerceTypes(t *testing.T) {
	m := NewModel()

	set := func(key, value string, fieldType FieldType) {
		t.Helper()
		idx := m.AddField()
		if err := m.SetKey(idx, key); err != nil {
			t.Fatalf("set key: %v", err)
		}
		if err := m.SetValue(idx, value); err != nil {
			t.Fatalf("set value: %v", err)
		}
		if err := m.SetType(idx, fieldType); err != nil {
			t.Fatalf("set type: %v", err)
		}
	}

	set("count", "42", TypeNumber)
	set("ratio", "1.5", TypeNumber)
	set("active", "TRUE", TypeBoolean)
	set("inactive", "no", TypeBoolean)
	set("exp", "1700000000", TypeTimestamp)
	set("scopes", `["a","b"]`, TypeArray)
	set("meta", `{"k":"v"}`, TypeObject)
	set("note", "hello", TypeString)

	out, err := m.Coerce()
	if err != nil {
		t.Fatalf("coerce: %v", err)
	}
	if out["count"] != int64(42) {
		t.Fatalf("expected numeric 42, got %#v", out["count"])
	}
	if out["ratio"] != 1.5 {
		t.Fatalf("expected 1.5, got %#v", out["ratio"])
	}
	if out["active"] != true || out["inactive"] != false {
		t.Fatalf("expected booleans, got %#v / %#v", out["active"], out["inactive"])
	}
	if out["exp"] != int64(1_700_000_000) {
		t.Fatalf("expected epoch seconds, got %#v", out["exp"])
	}
	if _, ok := out["scopes"].([]any); !ok {
		t.Fatalf("expected array, got %#v", out["scopes"])
	}
	if _, ok := out["meta"].(map[string]any); !ok {
		t.Fatalf("expected object, got %#v", out["meta"])
	}
	if out["note"] != "hello" {
		t.Fatalf("expected raw string, got %#v", out["note"])
	}
}

func TestCoerceSkipsEmptyFields(t *testing.T) {
	m := NewModel()
	m.AddField() // empty key and value

	idx := m.AddField()
	if err := m.SetKey(idx, "emptyValue"); err != nil {
		t.Fatalf("set key: %v", err)
	}

	out, err := m.Coerce()
	if err != nil {
		t.Fatalf("coerce: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty claim set, got %#v", out)
	}
}

func TestCoerceCollectsFailures(t *testing.T) {
	m := NewModel()

	idx := m.AddField()
	_ = m.SetKey(idx, "loginCount")
	_ = m.SetValue(idx, "abc")
	_ = m.SetType(idx, TypeNumber)

	idx = m.AddField()
	_ = m.SetKey(idx, "scopes")
	_ = m.SetValue(idx, "[not json")
	_ = m.SetType(idx, TypeArray)

	idx = m.AddField()
	_ = m.SetKey(idx, "ok")
	_ = m.SetValue(idx, "fine")

	_, err := m.Coerce()
	if err == nil {
		t.Fatal("expected coercion failure")
	}
	if !errors.Is(err, ErrCoercion) {
		t.Fatalf("expected coercion code, got %v", err)
	}
	if !errors.Is(err, ErrMalformedValue) {
		t.Fatalf("expected malformed value in chain, got %v", err)
	}

	var domainErr *apperrors.Error
	if !errors.As(err, &domainErr) {
		t.Fatalf("expected domain error, got %T", err)
	}
	if domainErr.Metadata["Keys"] != "loginCount, scopes" {
		t.Fatalf("expected offending keys listed, got %q", domainErr.Metadata["Keys"])
	}
}

func TestCoerceBadTimestamp(t *testing.T) {
	m := NewModel()
	idx := m.AddField()
	_ = m.SetKey(idx, "exp")
	_ = m.SetValue(idx, "tomorrow")
	_ = m.SetType(idx, TypeTimestamp)

	if _, err := m.Coerce(); !errors.Is(err, ErrCoercion) {
		t.Fatalf("expected coercion error, got %v", err)
	}
}

func TestLoadFromClaims(t *testing.T) {
	m := NewModel()
	m.LoadFromClaims(Claims{
		DefaultPrimaryKey: "+237612345678",
		"nickname":        "+237612345678",
		"exp":             float64(1_756_600_000),
		"loginCount":      float64(4),
		"verified":        true,
		"scopes":          []any{"a"},
		"meta":            map[string]any{"k": "v"},
		"pi":              3.14,
	})

	byKey := map[string]Field{}
	for _, field := range m.Fields() {
		byKey[field.Key] = field
	}

	if f := byKey[DefaultPrimaryKey]; !f.Linked || f.Type != TypeString {
		t.Fatalf("expected linked string primary, got %+v", f)
	}
	if f := byKey["nickname"]; !f.Linked {
		t.Fatalf("expected nickname linked on load, got %+v", f)
	}
	if f := byKey["exp"]; f.Type != TypeTimestamp || f.Value != "1756600000" {
		t.Fatalf("expected timestamp exp, got %+v", f)
	}
	if f := byKey["loginCount"]; f.Type != TypeNumber || f.Value != "4" {
		t.Fatalf("expected number loginCount, got %+v", f)
	}
	if f := byKey["verified"]; f.Type != TypeBoolean || f.Value != "true" {
		t.Fatalf("expected boolean, got %+v", f)
	}
	if f := byKey["scopes"]; f.Type != TypeArray || f.Value != `["a"]` {
		t.Fatalf("expected array, got %+v", f)
	}
	if f := byKey["meta"]; f.Type != TypeObject || f.Value != `{"k":"v"}` {
		t.Fatalf("expected object, got %+v", f)
	}
	if f := byKey["pi"]; f.Type != TypeNumber || f.Value != "3.14" {
		t.Fatalf("expected float number, got %+v", f)
	}
}

func TestLoadFromClaimsIsDeterministic(t *testing.T) {
	decoded := Claims{"b": "2", "a": "1", "c": "3"}

	m := NewModel()
	m.LoadFromClaims(decoded)
	first := m.Fields()

	m.LoadFromClaims(decoded)
	second := m.Fields()

	for i := range first {
		if first[i].Key != second[i].Key {
			t.Fatalf("expected stable order, got %q vs %q", first[i].Key, second[i].Key)
		}
	}
	if first[0].Key != "a" || first[1].Key != "b" || first[2].Key != "c" {
		t.Fatalf("expected alphabetical order, got %+v", first)
	}
}

func TestClassifierWindow(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  FieldType
	}{
		{name: "below window", value: float64(999_999_999), want: TypeNumber},
		{name: "lower bound excluded", value: float64(1_000_000_000), want: TypeNumber},
		{name: "inside window", value: float64(1_500_000_000), want: TypeTimestamp},
		{name: "upper bound excluded", value: float64(2_000_000_000), want: TypeNumber},
		{name: "fractional number", value: 1.5, want: TypeNumber},
		{name: "string", value: "x", want: TypeString},
		{name: "bool", value: false, want: TypeBoolean},
		{name: "array", value: []any{}, want: TypeArray},
		{name: "object", value: map[string]any{}, want: TypeObject},
		{name: "nil", value: nil, want: TypeString},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DefaultClassifier.Classify(tt.value); got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestClassifierCustomBounds(t *testing.T) {
	c := Classifier{TimestampMin: 10, TimestampMax: 20}
	if got := c.Classify(float64(15)); got != TypeTimestamp {
		t.Fatalf("expected timestamp with custom bounds, got %s", got)
	}
	if got := c.Classify(float64(1_500_000_000)); got != TypeNumber {
		t.Fatalf("expected number outside custom bounds, got %s", got)
	}

	m := NewModel()
	m.SetClassifier(c)
	m.LoadFromClaims(Claims{"count": float64(15)})
	field, err := m.Field(0)
	if err != nil {
		t.Fatalf("Field: %v", err)
	}
	if field.Type != TypeTimestamp {
		t.Fatalf("expected custom classifier applied on load, got %s", field.Type)
	}
}

func TestNewModelWithIdentityPrimaryKey(t *testing.T) {
	m := NewModelWithIdentity("phone", []string{"alias"})
	if got := m.PrimaryKey(); got != "phone" {
		t.Fatalf("PrimaryKey = %q, want phone", got)
	}
	if got := NewModel().PrimaryKey(); got != DefaultPrimaryKey {
		t.Fatalf("default PrimaryKey = %q, want %q", got, DefaultPrimaryKey)
	}
}

func TestResetDiscardsFields(t *testing.T) {
	m := NewModel()
	m.LoadDefaults(time.Now(), "abc")
	m.Reset()
	if m.Len() != 0 {
		t.Fatalf("expected empty model after reset, got %d", m.Len())
	}
}
