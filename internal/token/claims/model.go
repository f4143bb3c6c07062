package claims

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/louisbranch/selfcare/internal/platform/errors"
)

// DefaultPrimaryKey is the claim that carries the subscriber identity.
const DefaultPrimaryKey = "https://mymtn.com/phone_number"

// DefaultMirrorKeys are the claims that conventionally repeat the
// subscriber identity and may be linked to it.
var DefaultMirrorKeys = []string{"nickname", "name"}

// Model owns an ordered list of claim fields. Link propagation flows one
// way only: editing the primary identity field updates every linked
// field by value; edits to a linked mirror never touch the primary.
type Model struct {
	fields     []Field
	primaryKey string
	linkable   map[string]bool
	classifier Classifier
}

// NewModel creates an empty model with the default identity keys.
func NewModel() *Model {
	return NewModelWithIdentity(DefaultPrimaryKey, DefaultMirrorKeys)
}

// NewModelWithIdentity creates an empty model with a custom primary
// identity key and mirror allow-list.
func NewModelWithIdentity(primaryKey string, mirrorKeys []string) *Model {
	linkable := map[string]bool{primaryKey: true}
	for _, key := range mirrorKeys {
		linkable[key] = true
	}
	return &Model{
		primaryKey: primaryKey,
		linkable:   linkable,
		classifier: DefaultClassifier,
	}
}

// SetClassifier overrides the type-inference bounds used by LoadFromClaims.
func (m *Model) SetClassifier(c Classifier) {
	m.classifier = c
}

// PrimaryKey returns the primary identity claim key.
func (m *Model) PrimaryKey() string {
	return m.primaryKey
}

// Len returns the number of fields.
func (m *Model) Len() int {
	return len(m.fields)
}

// Field returns the field at index.
func (m *Model) Field(index int) (Field, error) {
	if err := m.checkIndex(index); err != nil {
		return Field{}, err
	}
	return m.fields[index], nil
}

// Fields returns a copy of all fields in order.
func (m *Model) Fields() []Field {
	out := make([]Field, len(m.fields))
	copy(out, m.fields)
	return out
}

// AddField appends an empty string-typed field and returns its index.
func (m *Model) AddField() int {
	m.fields = append(m.fields, Field{Type: TypeString})
	return len(m.fields) - 1
}

// RemoveField deletes the field at index. Removal never propagates.
func (m *Model) RemoveField(index int) error {
	if err := m.checkIndex(index); err != nil {
		return err
	}
	m.fields = append(m.fields[:index], m.fields[index+1:]...)
	return nil
}

// Reset discards all fields.
func (m *Model) Reset() {
	m.fields = nil
}

// SetKey renames the field at index. At most one field may carry the
// primary identity key.
func (m *Model) SetKey(index int, key string) error {
	if err := m.checkIndex(index); err != nil {
		return err
	}
	if key == m.primaryKey {
		for i, field := range m.fields {
			if i != index && field.Key == m.primaryKey {
				return ErrDuplicatePrimary
			}
		}
	}
	m.fields[index].Key = key
	return nil
}

// SetType changes the declared conversion type of the field at index.
func (m *Model) SetType(index int, fieldType FieldType) error {
	if err := m.checkIndex(index); err != nil {
		return err
	}
	if !fieldType.IsValid() {
		return fmt.Errorf("unknown field type %q", fieldType)
	}
	m.fields[index].Type = fieldType
	return nil
}

// SetValue updates the raw value of the field at index. When the field
// is the linked primary identity, the value is copied into every other
// linked field; each keeps an independent copy afterwards.
func (m *Model) SetValue(index int, raw string) error {
	if err := m.checkIndex(index); err != nil {
		return err
	}
	m.fields[index].Value = raw

	if m.fields[index].Key == m.primaryKey && m.fields[index].Linked {
		for i := range m.fields {
			if i != index && m.fields[i].Linked {
				m.fields[i].Value = raw
			}
		}
	}
	return nil
}

// SetValueByKey updates the first field whose key matches. Propagation
// rules are the same as SetValue.
func (m *Model) SetValueByKey(key, raw string) error {
	for i, field := range m.fields {
		if field.Key == key {
			return m.SetValue(i, raw)
		}
	}
	return apperrors.WithMetadata(apperrors.CodeNotFound, "no claim field with key "+key, map[string]string{"Key": key})
}

// ToggleLink flips the link flag of an allow-listed field.
func (m *Model) ToggleLink(index int) error {
	if err := m.checkIndex(index); err != nil {
		return err
	}
	key := m.fields[index].Key
	if !m.linkable[key] {
		return apperrors.WithMetadata(apperrors.CodeClaimKeyNotLinkable, "claim key "+key+" is not linkable", map[string]string{"Key": key})
	}
	m.fields[index].Linked = !m.fields[index].Linked
	return nil
}

// Coerce converts every field with a non-empty key and value into its
// declared type and returns the resulting claim set. Conversion failures
// are collected: the returned error names every offending key and wraps
// the per-field errors.
func (m *Model) Coerce() (ClaimSet, error) {
	out := ClaimSet{}
	var fieldErrs []error
	var badKeys []string

	for _, field := range m.fields {
		if field.Key == "" || field.Value == "" {
			continue
		}
		value, err := coerceValue(field)
		if err != nil {
			fieldErrs = append(fieldErrs, err)
			badKeys = append(badKeys, field.Key)
			continue
		}
		out[field.Key] = value
	}

	if len(fieldErrs) > 0 {
		return nil, apperrors.WrapWithMetadata(
			apperrors.CodeClaimCoercionFailed,
			"claim coercion failed for: "+strings.Join(badKeys, ", "),
			map[string]string{"Keys": strings.Join(badKeys, ", ")},
			errors.Join(fieldErrs...),
		)
	}
	return out, nil
}

// LoadFromClaims replaces all fields from a decoded claim mapping.
// Types are inferred by the classifier; allow-listed keys load linked.
// Keys are ordered alphabetically for deterministic editing.
func (m *Model) LoadFromClaims(decoded Claims) {
	keys := make([]string, 0, len(decoded))
	for key := range decoded {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	fields := make([]Field, 0, len(keys))
	for _, key := range keys {
		value := decoded[key]
		fields = append(fields, Field{
			Key:    key,
			Value:  rawString(value),
			Type:   m.classifier.Classify(value),
			Linked: m.linkable[key],
		})
	}
	m.fields = fields
}

// LoadDefaults replaces all fields with the stock editing template for a
// fresh token: a linked identity triple, issuer metadata, and a session
// window anchored at now.
func (m *Model) LoadDefaults(now time.Time, sessionID string) {
	identity := "+237612345678"
	epoch := now.Unix()
	m.fields = []Field{
		{Key: m.primaryKey, Value: identity, Type: TypeString, Linked: true},
		{Key: "nickname", Value: identity, Type: TypeString, Linked: true},
		{Key: "name", Value: identity, Type: TypeString, Linked: true},
		{Key: "https://mymtn.com/country", Value: "CMR", Type: TypeString},
		{Key: "https://mymtn.com/loginCount", Value: "4", Type: TypeNumber},
		{Key: "iss", Value: "https://mtncm-prod.mtn.auth0.com/", Type: TypeString},
		{Key: "aud", Value: "FTlI5hZNKciYTQhm3GNGmWTLYtZJaax8", Type: TypeString},
		{Key: "sub", Value: "sms_6948ff787aff463407da338", Type: TypeString},
		{Key: "iat", Value: strconv.FormatInt(epoch, 10), Type: TypeTimestamp},
		{Key: "exp", Value: strconv.FormatInt(epoch+86400, 10), Type: TypeTimestamp},
		{Key: "sid", Value: sessionID, Type: TypeString},
		{Key: "auth_time", Value: strconv.FormatInt(epoch-300, 10), Type: TypeTimestamp},
	}
}

func (m *Model) checkIndex(index int) error {
	if index < 0 || index >= len(m.fields) {
		return apperrors.WithMetadata(
			apperrors.CodeClaimIndexOutOfRange,
			"claim field index "+strconv.Itoa(index)+" is out of range",
			map[string]string{"Index": strconv.Itoa(index)},
		)
	}
	return nil
}

func coerceValue(field Field) (any, error) {
	switch field.Type {
	case TypeNumber:
		if n, err := strconv.ParseInt(field.Value, 10, 64); err == nil {
			return n, nil
		}
		f, err := strconv.ParseFloat(field.Value, 64)
		if err != nil {
			return nil, apperrors.WithMetadata(
				apperrors.CodeClaimCoercionFailed,
				"claim "+field.Key+" is not a number",
				map[string]string{"Key": field.Key},
			)
		}
		return f, nil
	case TypeTimestamp:
		n, err := strconv.ParseInt(field.Value, 10, 64)
		if err != nil {
			return nil, apperrors.WithMetadata(
				apperrors.CodeClaimCoercionFailed,
				"claim "+field.Key+" is not an epoch timestamp",
				map[string]string{"Key": field.Key},
			)
		}
		return n, nil
	case TypeBoolean:
		return strings.EqualFold(field.Value, "true"), nil
	case TypeArray, TypeObject:
		var parsed any
		if err := json.Unmarshal([]byte(field.Value), &parsed); err != nil {
			return nil, apperrors.WrapWithMetadata(
				apperrors.CodeClaimMalformedValue,
				"claim "+field.Key+" is not valid JSON",
				map[string]string{"Key": field.Key},
				err,
			)
		}
		return parsed, nil
	default:
		return field.Value, nil
	}
}
