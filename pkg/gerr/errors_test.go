package gerr

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
)

func TestKindClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind Kind
	}{
		{"Syntax", Syntax("bad token %q", "x"), KindSyntax},
		{"TableExists", TableExists("users"), KindTableExists},
		{"TableNotFound", TableNotFound("users"), KindTableNotFound},
		{"ColumnNotFound", ColumnNotFound("age"), KindColumnNotFound},
		{"TypeMismatch", TypeMismatch("want int"), KindTypeMismatch},
		{"Io", Io(io.ErrUnexpectedEOF, "short read"), KindIo},
		{"NotImplemented", NotImplemented("joins"), KindNotImplemented},
		{"Other", Other("anything"), KindOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.kind {
				t.Errorf("Expected kind %s, got %s", tt.kind, got)
			}
			if !IsKind(tt.err, tt.kind) {
				t.Errorf("IsKind(%s) should be true", tt.kind)
			}
			if IsKind(tt.err, KindSyntax) && tt.kind != KindSyntax {
				t.Error("IsKind must not match other kinds")
			}
		})
	}
}

func TestKindOfForeignError(t *testing.T) {
	if got := KindOf(errors.New("plain")); got != KindOther {
		t.Errorf("Expected KindOther for foreign errors, got %s", got)
	}
	if got := KindOf(nil); got != KindOther {
		t.Errorf("Expected KindOther for nil, got %s", got)
	}
}

func TestWrappingSurvivesFmtErrorf(t *testing.T) {
	inner := TableNotFound("orders")
	wrapped := fmt.Errorf("executing statement: %w", inner)

	if !IsKind(wrapped, KindTableNotFound) {
		t.Error("Kind must be detectable through fmt.Errorf wrapping")
	}

	var e *Error
	if !errors.As(wrapped, &e) {
		t.Fatal("errors.As should find the typed error")
	}
	if e.Table != "orders" {
		t.Errorf("Expected table orders, got %q", e.Table)
	}
}

func TestIoUnwrap(t *testing.T) {
	err := Io(io.ErrClosedPipe, "writing page %d", 4)
	if !errors.Is(err, io.ErrClosedPipe) {
		t.Error("Io must wrap the underlying error for errors.Is")
	}
	if !strings.Contains(err.Error(), "writing page 4") {
		t.Errorf("Message lost: %s", err.Error())
	}
	if !strings.Contains(err.Error(), io.ErrClosedPipe.Error()) {
		t.Errorf("Cause lost: %s", err.Error())
	}
}
