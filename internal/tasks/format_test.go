package tasks

import "testing"

func TestApplyTemplate(t *testing.T) {
	got := ApplyTemplate("Happy birthday {user}! You are {age} today.", "Alice", "<@123>", "Jan 1", "25")
	if got != "Happy birthday Alice! You are 25 today." {
		t.Fatalf("got %q", got)
	}

	got = ApplyTemplate(`Happy birthday {user}!\nYou are {age}!`, "Bob", "<@456>", "Feb 2", "30")
	if got != "Happy birthday Bob!\nYou are 30!" {
		t.Fatalf("literal \\n should become a newline, got %q", got)
	}

	got = ApplyTemplate("🎉 {mention} is turning {age} today on {date}!", "Charlie", "<@789>", "15 March", "20")
	if got != "🎉 <@789> is turning 20 today on 15 March!" {
		t.Fatalf("got %q", got)
	}
}

func TestAgeInfo(t *testing.T) {
	if got := AgeInfo(2000, 2025); got != " (turning 25)" {
		t.Fatalf("AgeInfo(2000, 2025) = %q", got)
	}
	if got := AgeInfo(0, 2025); got != "" {
		t.Fatalf("unknown birth year should produce empty age info, got %q", got)
	}
}

func TestExtractAgeValue(t *testing.T) {
	if got := extractAgeValue(" (turning 25)"); got != "25" {
		t.Fatalf("got %q", got)
	}
	if got := extractAgeValue(""); got != "" {
		t.Fatalf("got %q", got)
	}
}

func TestBuildEntry(t *testing.T) {
	// Custom template with known age.
	got := BuildEntry("Alice", "<@123>", " (turning 25)", "{user} ({age})", "{user}", "15 March")
	if got != "Alice (25)" {
		t.Fatalf("got %q", got)
	}

	// Defaults with known age.
	got = BuildEntry("Bob", "<@456>", " (turning 30)", "", "", "20 April")
	if got != "• <@456> (turning 30)!" {
		t.Fatalf("got %q", got)
	}

	// Unknown age selects the no-age template.
	got = BuildEntry("Charlie", "<@789>", "", "{user} ({age})", "{mention} celebrates today!", "1 January")
	if got != "<@789> celebrates today!" {
		t.Fatalf("got %q", got)
	}

	// Unknown age, no templates.
	got = BuildEntry("Dana", "<@321>", "", "", "", "1 January")
	if got != "• <@321>!" {
		t.Fatalf("got %q", got)
	}
}

func TestCombineMessage(t *testing.T) {
	if got := CombineMessage("Header", "Body", "Footer"); got != "Header\nBody\nFooter" {
		t.Fatalf("got %q", got)
	}
}

func TestHeaderAndFooterFallbacks(t *testing.T) {
	if got := headerOr(""); got != defaultHeader {
		t.Fatalf("empty custom header should fall back to default")
	}
	if got := headerOr(`Line 1\nLine 2`); got != "Line 1\nLine 2" {
		t.Fatalf("custom header newlines not processed: %q", got)
	}
	if got := footerOr(""); got != defaultFooter {
		t.Fatalf("empty custom footer should fall back to default")
	}
}

func TestDetermineRoleAction(t *testing.T) {
	cases := []struct {
		birthday, hasRole bool
		want              RoleAction
	}{
		{true, false, AddRole},
		{false, true, RemoveRole},
		{true, true, NoAction},
		{false, false, NoAction},
	}
	for _, c := range cases {
		if got := DetermineRoleAction(c.birthday, c.hasRole); got != c.want {
			t.Errorf("DetermineRoleAction(%v, %v) = %v, want %v", c.birthday, c.hasRole, got, c.want)
		}
	}
}
