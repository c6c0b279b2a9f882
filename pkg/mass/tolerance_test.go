package mass

import "testing"

func TestAbsoluteTolerance(t *testing.T) {
	tests := []struct {
		name string
		eps  float64
		a, b float64
		want bool
	}{
		{"exact match", 0.005, 1.0, 1.0, true},
		{"inside window", 0.005, 1.0, 1.004, true},
		{"on boundary", 0.005, 1.0, 1.005, true},
		{"outside window", 0.005, 1.0, 1.006, false},
		{"zero tolerance exact", 0, 2.5, 2.5, true},
		{"zero tolerance off", 0, 2.5, 2.5001, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Absolute(tt.eps).Within(tt.a, tt.b); got != tt.want {
				t.Errorf("Absolute(%v).Within(%v, %v) = %v, want %v", tt.eps, tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestPPMTolerance(t *testing.T) {
	tests := []struct {
		name string
		ppm  float64
		a, b float64
		want bool
	}{
		{"identical", 20, 204.0905, 204.0905, true},
		{"within 20ppm", 20, 204.0905, 204.0905 + 204.0905*10e-6, true},
		{"outside 20ppm", 20, 204.0905, 204.0905 + 204.0905*30e-6, false},
		{"symmetric", 20, 204.0905 + 204.0905*10e-6, 204.0905, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PPM(tt.ppm).Within(tt.a, tt.b); got != tt.want {
				t.Errorf("PPM(%v).Within(%v, %v) = %v, want %v", tt.ppm, tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestParseLabel(t *testing.T) {
	tests := []struct {
		name       string
		in         string
		wantBase   string
		wantAdduct string
		wantErr    bool
	}{
		{"bare mass", "118.0635457", "118.0635457", "", false},
		{"positive adduct", "117.079+H", "117.079", "+H", false},
		{"negative adduct", "115.0399-H", "115.0399", "-H", false},
		{"multichar adduct", "210.11+NH4", "210.11", "+NH4", false},
		{"empty", "", "", "", true},
		{"not a number", "abc+H", "", "", true},
		{"dangling sign", "117.079+", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLabel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLabel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got.Base != tt.wantBase || got.Adduct != tt.wantAdduct {
				t.Errorf("ParseLabel(%q) = {%s %s}, want {%s %s}", tt.in, got.Base, got.Adduct, tt.wantBase, tt.wantAdduct)
			}
			if got.String() != tt.in {
				t.Errorf("String() = %s, want %s", got.String(), tt.in)
			}
		})
	}
}
