package model

import (
	"fmt"
	"strings"
)

// PatternKind enumerates every pattern the detector can report.
type PatternKind int

const (
	KindRSIDivergence PatternKind = iota
	KindMACDDivergence
	KindSMACrossover
	KindMACDCrossover
	KindVCP
	KindBreakoutSetup

	// Chart shapes
	KindHeadAndShoulders
	KindInverseHeadAndShoulders
	KindDoubleTop
	KindDoubleBottom
	KindCupAndHandle
	KindAscendingTriangle
	KindDescendingTriangle
	KindSymmetricalTriangle
	KindRisingWedge
	KindFallingWedge
	KindRectangle
	KindBullFlag
	KindBearFlag
	KindPennant

	// Candlestick shapes
	KindDoji
	KindSpinningTop
	KindHighWave
	KindHammer
	KindHangingMan
	KindInvertedHammer
	KindShootingStar
	KindBullishEngulfing
	KindBearishEngulfing
	KindBullishHarami
	KindBearishHarami
	KindPiercingLine
	KindDarkCloudCover
	KindMorningStar
	KindEveningStar
	KindThreeWhiteSoldiers
	KindThreeBlackCrows
	KindTweezerTop
	KindTweezerBottom

	kindCount
)

var kindNames = [...]string{
	KindRSIDivergence:           "rsi_divergence",
	KindMACDDivergence:          "macd_divergence",
	KindSMACrossover:            "sma_crossover",
	KindMACDCrossover:           "macd_crossover",
	KindVCP:                     "vcp",
	KindBreakoutSetup:           "breakout_setup",
	KindHeadAndShoulders:        "head_and_shoulders",
	KindInverseHeadAndShoulders: "inverse_head_and_shoulders",
	KindDoubleTop:               "double_top",
	KindDoubleBottom:            "double_bottom",
	KindCupAndHandle:            "cup_and_handle",
	KindAscendingTriangle:       "ascending_triangle",
	KindDescendingTriangle:      "descending_triangle",
	KindSymmetricalTriangle:     "symmetrical_triangle",
	KindRisingWedge:             "rising_wedge",
	KindFallingWedge:            "falling_wedge",
	KindRectangle:               "rectangle",
	KindBullFlag:                "bull_flag",
	KindBearFlag:                "bear_flag",
	KindPennant:                 "pennant",
	KindDoji:                    "doji",
	KindSpinningTop:             "spinning_top",
	KindHighWave:                "high_wave",
	KindHammer:                  "hammer",
	KindHangingMan:              "hanging_man",
	KindInvertedHammer:          "inverted_hammer",
	KindShootingStar:            "shooting_star",
	KindBullishEngulfing:        "bullish_engulfing",
	KindBearishEngulfing:        "bearish_engulfing",
	KindBullishHarami:           "bullish_harami",
	KindBearishHarami:           "bearish_harami",
	KindPiercingLine:            "piercing_line",
	KindDarkCloudCover:          "dark_cloud_cover",
	KindMorningStar:             "morning_star",
	KindEveningStar:             "evening_star",
	KindThreeWhiteSoldiers:      "three_white_soldiers",
	KindThreeBlackCrows:         "three_black_crows",
	KindTweezerTop:              "tweezer_top",
	KindTweezerBottom:           "tweezer_bottom",
}

// AllKinds returns every pattern kind in declaration order.
func AllKinds() []PatternKind {
	out := make([]PatternKind, 0, kindCount)
	for k := PatternKind(0); k < kindCount; k++ {
		out = append(out, k)
	}
	return out
}

func (k PatternKind) String() string {
	if k < 0 || k >= kindCount {
		return fmt.Sprintf("PatternKind(%d)", int(k))
	}
	return kindNames[k]
}

func (k PatternKind) MarshalText() ([]byte, error) {
	if k < 0 || k >= kindCount {
		return nil, fmt.Errorf("invalid pattern kind %d", int(k))
	}
	return []byte(kindNames[k]), nil
}

func (k *PatternKind) UnmarshalText(b []byte) error {
	s := string(b)
	for i, name := range kindNames {
		if name == s {
			*k = PatternKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown pattern kind %q", s)
}

// Family groups pattern kinds.
type Family string

const (
	FamilyCore        Family = "core"
	FamilyChart       Family = "chart"
	FamilyCandlestick Family = "candlestick"
)

// Family reports which detector family owns the kind.
func (k PatternKind) Family() Family {
	switch {
	case k <= KindBreakoutSetup:
		return FamilyCore
	case k <= KindPennant:
		return FamilyChart
	default:
		return FamilyCandlestick
	}
}

// Status is the detector verdict for a kind. The zero value is StatusNone.
type Status int

const (
	StatusNone Status = iota
	StatusWeak
	StatusStrong
	StatusBullish
	StatusBearish
	StatusConfirmed
	StatusUnconfirmed
	StatusSetup
)

var statusNames = []string{"none", "weak", "strong", "bullish", "bearish", "confirmed", "unconfirmed", "setup"}

func (s Status) String() string { return enumName(statusNames, int(s), "Status") }
func (s Status) MarshalText() ([]byte, error) { return enumText(statusNames, int(s), "status") }
func (s *Status) UnmarshalText(b []byte) error { return enumParse(statusNames, b, "status", (*int)(s)) }

// Confidence grades a detection. ConfidenceNone is omitted from JSON.
type Confidence int

const (
	ConfidenceNone Confidence = iota
	ConfidenceLow
	ConfidenceMedium
	ConfidenceHigh
)

var confidenceNames = []string{"none", "low", "medium", "high"}

func (c Confidence) String() string { return enumName(confidenceNames, int(c), "Confidence") }
func (c Confidence) MarshalText() ([]byte, error) {
	return enumText(confidenceNames, int(c), "confidence")
}
func (c *Confidence) UnmarshalText(b []byte) error {
	return enumParse(confidenceNames, b, "confidence", (*int)(c))
}

// Bias is the directional implication of a pattern. The zero value is neutral.
type Bias int

const (
	BiasNeutral Bias = iota
	BiasBullish
	BiasBearish
)

var biasNames = []string{"neutral", "bullish", "bearish"}

func (b Bias) String() string { return enumName(biasNames, int(b), "Bias") }
func (b Bias) MarshalText() ([]byte, error) { return enumText(biasNames, int(b), "bias") }
func (b *Bias) UnmarshalText(text []byte) error { return enumParse(biasNames, text, "bias", (*int)(b)) }

// Reliability is the historical reliability tier of a shape. Core kinds
// have ReliabilityUnknown, which is omitted from JSON.
type Reliability int

const (
	ReliabilityUnknown Reliability = iota
	ReliabilityLowMedium
	ReliabilityMedium
	ReliabilityMediumHigh
	ReliabilityHigh
)

var reliabilityNames = []string{"", "Low-Medium", "Medium", "Medium-High", "High"}

func (r Reliability) String() string { return enumName(reliabilityNames, int(r), "Reliability") }
func (r Reliability) MarshalText() ([]byte, error) {
	return enumText(reliabilityNames, int(r), "reliability")
}
func (r *Reliability) UnmarshalText(b []byte) error {
	return enumParse(reliabilityNames, b, "reliability", (*int)(r))
}

func enumName(names []string, i int, typ string) string {
	if i < 0 || i >= len(names) {
		return fmt.Sprintf("%s(%d)", typ, i)
	}
	return names[i]
}

func enumText(names []string, i int, what string) ([]byte, error) {
	if i < 0 || i >= len(names) {
		return nil, fmt.Errorf("invalid %s %d", what, i)
	}
	return []byte(names[i]), nil
}

func enumParse(names []string, b []byte, what string, dst *int) error {
	s := string(b)
	for i, name := range names {
		if name == s {
			*dst = i
			return nil
		}
	}
	return fmt.Errorf("unknown %s %q", what, s)
}

// PatternResult is one detector verdict.
type PatternResult struct {
	Kind        PatternKind `json:"kind"`
	Status      Status      `json:"status"`
	Confidence  Confidence  `json:"confidence,omitempty"`
	Bias        Bias        `json:"bias"`
	Reliability Reliability `json:"reliability,omitempty"`
	Description string      `json:"description,omitempty"`
}

// Detected reports whether the result represents an actual finding.
func (p PatternResult) Detected() bool {
	return p.Status != StatusNone
}

// Title renders the kind for humans, e.g. "Head And Shoulders".
func (k PatternKind) Title() string {
	parts := strings.Split(k.String(), "_")
	for i, p := range parts {
		switch p {
		case "rsi", "macd", "sma", "vcp":
			parts[i] = strings.ToUpper(p)
		default:
			if p != "" {
				parts[i] = strings.ToUpper(p[:1]) + p[1:]
			}
		}
	}
	return strings.Join(parts, " ")
}
