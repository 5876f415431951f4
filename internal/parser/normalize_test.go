package parser

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"The.Mandalorian", "The Mandalorian"},
		{"game_of_thrones", "Game Of Thrones"},
		{"Game of Thrones", "Game Of Thrones"},
		{"S.H.I.E.L.D", "S.H.I.E.L.D"},
		{"s.w.a.t", "s.w.a.t"},
		{"9-1-1", "9-1-1"},
		{"Marvels.Agents.of.S.H.I.E.L.D", "Marvels Agents Of S.H.I.E.L.D"},
		{"Голубая волна / Blue Crush", "Blue Crush"},
		{"the office UK", "The Office UK"},
		{"blade runner 2049", "Blade Runner 2049"},
		{"[HorribleSubs] one piece", "One Piece"},
		{"Ｔｈｅ　Ｏｆｆｉｃｅ", "The Office"},
		{"doctor_who", "Doctor Who"},
		{"  ", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := Normalize(tt.input); got != tt.expected {
			t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"The.Mandalorian",
		"Marvels.Agents.of.S.H.I.E.L.D",
		"spy×family",
		"Le follie dell'imperatore - The Emperor's New Groove",
		"[A] [B] [C] [D] Title",
		"mcDONALD's farm",
		"x264 leftovers 1080P",
		"Голубая волна",
		"/ Blue Crush /",
		"S.W.A.T.2017",
	}

	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize(Normalize(%q)) = %q, want %q", in, twice, once)
		}
	}
}

func TestBestSegment(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Голубая волна / Blue Crush", "Blue Crush"},
		{"Blue Crush / Голубая волна", "Blue Crush"},
		{"Alpha / Beta", "Alpha"},
		{" / ", ""},
	}

	for _, tt := range tests {
		if got := bestSegment(tt.input); got != tt.expected {
			t.Errorf("bestSegment(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestKeepsCase(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"UK", true},
		{"TV", true},
		{"A", true},
		{"USA", true},
		{"NASA", false},
		{"Uk", false},
		{"2", false},
	}

	for _, tt := range tests {
		if got := keepsCase(tt.input); got != tt.expected {
			t.Errorf("keepsCase(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}
