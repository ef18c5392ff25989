package report

import "testing"

func TestProgressCrossedDecile(t *testing.T) {
	p := NewProgress(1000)

	if _, crossed := p.CrossedDecile(50); crossed {
		t.Fatal("50/1000 should not cross a decile boundary")
	}

	line, crossed := p.CrossedDecile(100)
	if !crossed {
		t.Fatal("100/1000 should cross the first decile")
	}
	if line == "" {
		t.Fatal("expected a non-empty progress line")
	}

	if _, crossed := p.CrossedDecile(150); crossed {
		t.Fatal("150/1000 should not cross a new decile after 100/1000 already reported")
	}

	if _, crossed := p.CrossedDecile(1000); !crossed {
		t.Fatal("1000/1000 should cross the final decile")
	}
}

func TestProgressIgnoresZeroTotal(t *testing.T) {
	p := NewProgress(0)
	if _, crossed := p.CrossedDecile(0); crossed {
		t.Fatal("a zero-total progress tracker should never report a crossing")
	}
}
