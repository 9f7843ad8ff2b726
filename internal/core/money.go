// Package core provides the bill domain: the bill record, its date and
// status display codecs, the proof file allow-set and amount handling.
//
// This file contains functions for parsing the integer amounts typed in the
// bill form and formatting them for display.
package core

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var frenchPrinter = message.NewPrinter(language.French)

// ParseAmount converts a form value to a non-negative whole amount.
//
// Surrounding spaces are ignored. Signs, decimals and any other characters are
// rejected so the stored amount always matches what the employee typed.
//
// Examples:
//
//	ParseAmount("348")  -> 348, nil
//	ParseAmount(" 70 ") -> 70, nil
//	ParseAmount("-1")   -> 0, ErrInvalidAmount
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

// ParseVAT parses the optional VAT field; empty means zero.
func ParseVAT(s string) (int64, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	v, err := ParseAmount(s)
	if err != nil {
		return 0, ErrInvalidVAT
	}
	return v, nil
}

// ParsePct parses the VAT percentage, falling back to DefaultPct when the
// field is empty or not a number.
func ParsePct(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultPct, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return DefaultPct, nil
	}
	if v < 0 || v > 100 {
		return 0, ErrInvalidPct
	}
	return v, nil
}

// FormatAmount renders an amount in euros with French digit grouping.
func FormatAmount(amount int64) string {
	return frenchPrinter.Sprintf("%d €", amount)
}
