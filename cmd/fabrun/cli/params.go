// Copyright 2026 The Fabrun Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// FlagsFromParams creates a [pflag.FlagSet] with flags bound to the tagged
// fields of params. params must be a pointer to a struct. Panics on
// invalid input (programming error, not runtime data).
//
// Flag names use dashes; the underscore spelling of every flag
// ("--file_format" for "--file-format") is accepted as well.
//
//	var params drcParams
//	command := &cli.Command{
//	    Flags: func() *pflag.FlagSet {
//	        return cli.FlagsFromParams("drc", &params)
//	    },
//	    Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
//	        // params fields are populated after flag parsing
//	    },
//	}
func FlagsFromParams(name string, params any) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flagSet.SetNormalizeFunc(underscoreAliases)
	if err := BindFlags(params, flagSet); err != nil {
		panic(fmt.Sprintf("cli.FlagsFromParams(%q): %v", name, err))
	}
	return flagSet
}

func underscoreAliases(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

// BindFlags registers pflag entries for each tagged field in params.
// params must be a pointer to a struct.
//
// # Struct tags
//
//   - flag:"name" or flag:"name,n": the long flag name and optional single-
//     character shorthand. Fields without a flag tag are skipped.
//   - desc:"help text": the flag's help description.
//   - default:"value": the default value, parsed according to the field's
//     Go type. If omitted, the type's zero value is used.
//
// # Supported field types
//
// string, bool, int, [time.Duration], []string.
//
// Embedded structs are bound recursively, so flags shared by several
// commands live in one embedded params type.
func BindFlags(params any, flagSet *pflag.FlagSet) error {
	value := reflect.ValueOf(params)
	if value.Kind() != reflect.Ptr || value.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("params must be a pointer to a struct, got %T", params)
	}
	return bindStructFields(value.Elem(), flagSet)
}

func bindStructFields(structValue reflect.Value, flagSet *pflag.FlagSet) error {
	structType := structValue.Type()

	for i := range structType.NumField() {
		field := structType.Field(i)
		fieldValue := structValue.Field(i)

		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			if err := bindStructFields(fieldValue, flagSet); err != nil {
				return fmt.Errorf("embedded %s: %w", field.Name, err)
			}
			continue
		}

		flagTag := field.Tag.Get("flag")
		if flagTag == "" {
			continue
		}

		name, shorthand := parseFlagTag(flagTag)
		description := field.Tag.Get("desc")
		defaultString := field.Tag.Get("default")

		if !fieldValue.CanAddr() {
			return fmt.Errorf("field %s: not addressable", field.Name)
		}

		if err := bindField(fieldValue, flagSet, name, shorthand, description, defaultString); err != nil {
			return fmt.Errorf("field %s: %w", field.Name, err)
		}
	}

	return nil
}

// parseFlagTag splits "name" into ("name", "") and "name,n" into ("name", "n").
func parseFlagTag(tag string) (string, string) {
	name, shorthand, _ := strings.Cut(tag, ",")
	return name, shorthand
}

func bindField(fieldValue reflect.Value, flagSet *pflag.FlagSet, name, shorthand, description, defaultString string) error {
	pointer := fieldValue.Addr().Interface()

	switch target := pointer.(type) {
	case *string:
		flagSet.StringVarP(target, name, shorthand, defaultString, description)

	case *bool:
		defaultValue, err := parseDefault(defaultString, strconv.ParseBool)
		if err != nil {
			return fmt.Errorf("default for --%s: %w", name, err)
		}
		flagSet.BoolVarP(target, name, shorthand, defaultValue, description)

	case *int:
		defaultValue, err := parseDefault(defaultString, strconv.Atoi)
		if err != nil {
			return fmt.Errorf("default for --%s: %w", name, err)
		}
		flagSet.IntVarP(target, name, shorthand, defaultValue, description)

	case *time.Duration:
		defaultValue, err := parseDefault(defaultString, time.ParseDuration)
		if err != nil {
			return fmt.Errorf("default for --%s: %w", name, err)
		}
		flagSet.DurationVarP(target, name, shorthand, defaultValue, description)

	case *[]string:
		var defaultValue []string
		if defaultString != "" {
			defaultValue = strings.Split(defaultString, ",")
		}
		flagSet.StringSliceVarP(target, name, shorthand, defaultValue, description)

	default:
		return fmt.Errorf("unsupported type %s for flag --%s", fieldValue.Type(), name)
	}

	return nil
}

// parseDefault parses a default tag, treating "" as the zero value.
func parseDefault[T any](s string, parse func(string) (T, error)) (T, error) {
	if s == "" {
		var zero T
		return zero, nil
	}
	return parse(s)
}
