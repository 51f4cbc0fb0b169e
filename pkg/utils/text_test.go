package utils

import (
	"reflect"
	"testing"
)

func TestTruncate(t *testing.T) {
	if Truncate("hello", 10) != "hello" {
		t.Error("short string unchanged")
	}
	if Truncate("hello world", 5) != "hello..." {
		t.Errorf("got %s", Truncate("hello world", 5))
	}
	if Truncate("x", 0) != "x" {
		t.Error("maxLen 0 returns as-is")
	}
}

func TestWords(t *testing.T) {
	got := Words("Sugar 2kg, (low-stock) WhatsApp: +254")
	want := []string{"sugar", "2kg", "low", "stock", "whatsapp", "254"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Words() = %v, want %v", got, want)
	}
	if len(Words("  ,, ")) != 0 {
		t.Error("punctuation-only input should produce no words")
	}
}
