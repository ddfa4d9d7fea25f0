package relation

import (
	"reflect"
	"sort"
	"strconv"
	"strings"

	goversion "github.com/hashicorp/go-version"
	"github.com/pkg/errors"
	"github.com/tiny-systems/charmd/charm"
)

// runtimeKeys are injected into every bag by the host runtime and are not
// part of any interface schema.
var runtimeKeys = map[string]bool{
	"ingress-address": true,
	"egress-subnets":  true,
	"private-address": true,
}

// Decode parses a flattened relation bag into a typed context struct,
// rejecting unknown and missing keys explicitly. Fields are matched on the
// json tag, a field tagged `optional:"true"` may be absent. Supported field
// types are string, int and bool, everything a relation bag can carry is a
// string on the wire.
func Decode(bag charm.RelationBag, out interface{}) error {
	v := reflect.ValueOf(out)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return errors.New("decode target must be a struct pointer")
	}
	elem := v.Elem()
	t := elem.Type()

	known := map[string]bool{}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		key := jsonKey(f)
		if key == "" {
			continue
		}
		known[key] = true

		raw, present := bag[key]
		if !present {
			if f.Tag.Get("optional") == "true" {
				continue
			}
			return errors.Errorf("relation key %q is missing", key)
		}
		if err := setField(elem.Field(i), key, raw); err != nil {
			return err
		}
	}

	// reject keys the schema does not know, by name order for stable errors
	var unknown []string
	for k := range bag {
		if !known[k] && !runtimeKeys[k] {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return errors.Errorf("relation carries unknown keys: %s", strings.Join(unknown, ", "))
	}
	return nil
}

func jsonKey(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if tag == "" || tag == "-" {
		return ""
	}
	if idx := strings.Index(tag, ","); idx >= 0 {
		tag = tag[:idx]
	}
	return tag
}

func setField(field reflect.Value, key, raw string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Int:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return errors.Errorf("relation key %q: expected int, got %q", key, raw)
		}
		field.SetInt(int64(n))
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return errors.Errorf("relation key %q: expected bool, got %q", key, raw)
		}
		field.SetBool(b)
	default:
		return errors.Errorf("relation key %q: unsupported field kind %s", key, field.Kind())
	}
	return nil
}

// CheckVersion verifies the interface version published by the remote
// application against a handler's constraint, e.g. ">= 1.0, < 2.0". An
// empty remote version passes, versioning is advisory by convention.
func CheckVersion(s charm.EndpointSnapshot, constraint string) error {
	if constraint == "" || s.Version == "" {
		return nil
	}
	v, err := goversion.NewVersion(s.Version)
	if err != nil {
		return errors.Wrapf(err, "endpoint %s: invalid interface version %q", s.Endpoint, s.Version)
	}
	c, err := goversion.NewConstraint(constraint)
	if err != nil {
		return errors.Wrapf(err, "endpoint %s: invalid version constraint %q", s.Endpoint, constraint)
	}
	if !c.Check(v) {
		return errors.Errorf("endpoint %s: interface version %s does not satisfy %s",
			s.Endpoint, s.Version, constraint)
	}
	return nil
}
