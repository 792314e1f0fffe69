// Copyright 2026 The Lowc Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package envflag fills a struct of flags from a comma separated
// environment variable such as LOWC_DEBUG=logclean=2,strict.
package envflag

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
)

// Init uses Parse with the contents of the given environment variable as input.
func Init[T any](flags *T, envVar string) error {
	err := Parse(flags, os.Getenv(envVar))
	if err != nil {
		return fmt.Errorf("cannot parse %s: %w", envVar, err)
	}
	return nil
}

// Parse initializes the fields in flags from the attached struct field tags as
// well as the contents of the given string.
//
// The struct field tag may contain a default value other than the zero value,
// such as `envflag:"default:true"` to set a boolean field to true by default.
// Integer fields may carry a lower bound, as in `envflag:"default:100,min:1"`;
// values below it are invalid.
//
// The tag may be marked as deprecated with `envflag:"deprecated"`
// which will cause Parse to return an error if the user attempts to set
// its value to anything but the default value.
//
// The string may contain a comma-separated list of name=value pairs values
// representing the fields in the struct type T. If the value is omitted
// entirely for a boolean field, the value is assumed to be name=true.
//
// Names are treated case insensitively. Boolean values are parsed via
// [strconv.ParseBool], integers via [strconv.Atoi], and strings are accepted
// as-is.
func Parse[T any](flags *T, env string) error {
	fields, err := fieldsOf(flags)
	if err != nil {
		return err
	}
	fv := reflect.ValueOf(flags).Elem()
	for _, f := range fields {
		if f.hasDefault {
			fv.Field(f.index).Set(reflect.ValueOf(f.def))
		}
	}

	var errs []error
	for _, elem := range strings.Split(env, ",") {
		if elem == "" {
			// Allow empty elements so that env vars can be joined, as in
			//
			//     os.Setenv("LOWC_DEBUG", os.Getenv("LOWC_DEBUG")+",strict")
			continue
		}
		name, valueStr, hasValue := strings.Cut(elem, "=")
		name = strings.ToLower(name)

		f, ok := lookup(fields, name)
		if !ok {
			errs = append(errs, fmt.Errorf("unknown flag %q", elem))
			continue
		}
		field := fv.Field(f.index)
		var val any
		switch {
		case hasValue:
			val, err = parseValue(name, field.Kind(), valueStr)
			if err == nil {
				err = f.check(val)
			}
			if err != nil {
				errs = append(errs, err)
				continue
			}
		case field.Kind() == reflect.Bool:
			// For bools, "somename" is short for "somename=true" or
			// "somename=1", as with Go flags.
			val = true
		default:
			errs = append(errs, fmt.Errorf("value needed for %s flag %q", field.Kind(), name))
			continue
		}

		if f.deprecated {
			// Deprecated flags may still be set to their default value.
			if field.Interface() != val {
				errs = append(errs, fmt.Errorf("cannot change default value of deprecated flag %q", name))
			}
			continue
		}
		field.Set(reflect.ValueOf(val))
	}
	return errors.Join(errs...)
}

// Describe formats the fields of flags that differ from their defaults in
// the syntax accepted by Parse, sorted in field order.
func Describe[T any](flags *T) string {
	fields, err := fieldsOf(flags)
	if err != nil {
		return ""
	}
	fv := reflect.ValueOf(flags).Elem()
	var parts []string
	for _, f := range fields {
		v := fv.Field(f.index).Interface()
		def := f.def
		if !f.hasDefault {
			def = reflect.Zero(fv.Field(f.index).Type()).Interface()
		}
		if v == def {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%v", f.name, v))
	}
	return strings.Join(parts, ",")
}

type fieldInfo struct {
	name       string
	index      int
	hasDefault bool
	def        any
	hasMin     bool
	min        int
	deprecated bool
}

func (f *fieldInfo) check(val any) error {
	if n, ok := val.(int); ok && f.hasMin && n < f.min {
		return errInvalid{fmt.Errorf("invalid int value for %s: %d is below the minimum %d", f.name, n, f.min)}
	}
	return nil
}

func lookup(fields []fieldInfo, name string) (*fieldInfo, bool) {
	for i := range fields {
		if fields[i].name == name {
			return &fields[i], true
		}
	}
	return nil, false
}

func fieldsOf[T any](flags *T) ([]fieldInfo, error) {
	ft := reflect.TypeOf(flags).Elem()
	fields := make([]fieldInfo, 0, ft.NumField())
	for i := 0; i < ft.NumField(); i++ {
		field := ft.Field(i)
		info := fieldInfo{name: strings.ToLower(field.Name), index: i}
		if tagStr, ok := field.Tag.Lookup("envflag"); ok {
			for _, f := range strings.Split(tagStr, ",") {
				key, rest, hasRest := strings.Cut(f, ":")
				switch key {
				case "default":
					val, err := parseValue(info.name, field.Type.Kind(), rest)
					if err != nil {
						return nil, err
					}
					info.hasDefault, info.def = true, val
				case "min":
					n, err := strconv.Atoi(rest)
					if err != nil || field.Type.Kind() != reflect.Int {
						return nil, fmt.Errorf("invalid min tag %q for %s", rest, info.name)
					}
					info.hasMin, info.min = true, n
				case "deprecated":
					if hasRest {
						return nil, fmt.Errorf("cannot have a value for deprecated tag")
					}
					info.deprecated = true
				default:
					return nil, fmt.Errorf("unknown envflag tag %q", f)
				}
			}
		}
		fields = append(fields, info)
	}
	return fields, nil
}

func parseValue(name string, kind reflect.Kind, str string) (val any, err error) {
	switch kind {
	case reflect.Bool:
		val, err = strconv.ParseBool(str)
	case reflect.Int:
		val, err = strconv.Atoi(str)
	case reflect.String:
		val = str
	default:
		return nil, errInvalid{fmt.Errorf("unsupported kind %s", kind)}
	}
	if err != nil {
		return nil, errInvalid{fmt.Errorf("invalid %s value for %s: %v", kind, name, err)}
	}
	return val, nil
}

// An ErrInvalid indicates a malformed input string.
var ErrInvalid = errors.New("invalid value")

type errInvalid struct{ error }

func (errInvalid) Is(err error) bool {
	return err == ErrInvalid
}
