package layout

// This file maps the drawing's $INSUNITS header value to metres.

// Unit is a DXF drawing unit code ($INSUNITS).
type Unit int

const (
	UnitUnitless Unit = iota
	UnitInch
	UnitFoot
	UnitMile
	UnitMM
	UnitCM
	UnitMeter
	UnitKilometer
	UnitMicroinch
	UnitMil
	UnitYard
	UnitAngstrom
	UnitNanometer
	UnitMicron
	UnitDecimeter
	UnitDecameter
	UnitHectometer
	UnitGigameter
	UnitAstronomical
	UnitLightYear
	UnitParsec
	UnitUSSurveyFoot
	UnitUSSurveyInch
	UnitUSSurveyYard
	UnitUSSurveyMile
)

var unitInfo = map[Unit]struct {
	name   string
	meters float64
}{
	UnitInch:         {"in", 0.0254},
	UnitFoot:         {"ft", 0.3048},
	UnitMile:         {"mi", 1609.344},
	UnitMM:           {"mm", 0.001},
	UnitCM:           {"cm", 0.01},
	UnitMeter:        {"m", 1},
	UnitKilometer:    {"km", 1000},
	UnitMicroinch:    {"µin", 0.0254e-6},
	UnitMil:          {"mil", 0.0254e-3},
	UnitYard:         {"yd", 0.9144},
	UnitAngstrom:     {"Å", 1e-10},
	UnitNanometer:    {"nm", 1e-9},
	UnitMicron:       {"µm", 1e-6},
	UnitDecimeter:    {"dm", 0.1},
	UnitDecameter:    {"dam", 10},
	UnitHectometer:   {"hm", 100},
	UnitGigameter:    {"Gm", 1e9},
	UnitAstronomical: {"au", 149597870700},
	UnitLightYear:    {"ly", 9460730472580800},
	UnitParsec:       {"pc", 3.0856775814913673e16},
	UnitUSSurveyFoot: {"ft(US)", 1200.0 / 3937.0},
	UnitUSSurveyInch: {"in(US)", 100.0 / 3937.0},
	UnitUSSurveyYard: {"yd(US)", 3600.0 / 3937.0},
	UnitUSSurveyMile: {"mi(US)", 6336000.0 / 3937.0},
}

// String returns a short symbol; unknown and unitless codes give "".
func (u Unit) String() string {
	return unitInfo[u].name
}

// Known reports whether u names a physical unit.
func (u Unit) Known() bool {
	_, ok := unitInfo[u]
	return ok
}

// ToMeters returns the length of one drawing unit in metres, or 1 for
// unitless and unknown codes.
func (u Unit) ToMeters() float64 {
	if info, ok := unitInfo[u]; ok {
		return info.meters
	}
	return 1
}
