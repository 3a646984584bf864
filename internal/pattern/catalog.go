package pattern

import "StockSentinel/internal/model"

// Entry describes a pattern kind independent of any detection: its default
// direction, reliability tier and the reference text shown alongside a hit.
type Entry struct {
	Kind        model.PatternKind
	Family      model.Family
	Name        string
	Type        string     // e.g. "Bullish Reversal"
	Bias        model.Bias // default directional reading
	Reliability model.Reliability
	Description string
	Signals     []string
	Strategy    string
}

var catalog = map[model.PatternKind]Entry{
	// Core detectors carry their direction in each result.
	model.KindRSIDivergence: {
		Name:        "RSI Divergence",
		Type:        "Reversal",
		Bias:        model.BiasNeutral,
		Description: "Price and RSI disagree at the last two swing points: a lower low with a higher RSI low is bullish, a higher high with a lower RSI high is bearish.",
		Signals: []string{
			"Two comparable swing highs or lows",
			"Price extends while RSI does not",
			"Gap between the RSI readings sets confidence",
			"The most recent divergence wins",
		},
		Strategy: "Treat as an early warning. Enter in the divergence direction once price confirms with a close beyond the last swing. Stop loss beyond the divergent extreme.",
	},
	model.KindMACDDivergence: {
		Name:        "MACD Divergence",
		Type:        "Reversal",
		Bias:        model.BiasNeutral,
		Description: "Price and the MACD line disagree at the last two swing points, showing momentum fading against the trend.",
		Signals: []string{
			"Two comparable swing highs or lows",
			"Price extends while MACD does not",
			"Histogram often shrinks into the second swing",
			"The most recent divergence wins",
		},
		Strategy: "Wait for the MACD line to cross its signal in the divergence direction. Stop loss beyond the divergent extreme. Target the prior swing on the other side.",
	},
	model.KindSMACrossover: {
		Name:        "SMA Crossover",
		Type:        "Trend Change",
		Bias:        model.BiasNeutral,
		Description: "The 20-day average crosses the 50-day average. Above is a golden cross, below is a death cross.",
		Signals: []string{
			"SMA20 crosses SMA50",
			"Confirmed after the new order holds for 3 bars",
			"Reported for 20 bars after the cross",
			"Stronger when price sits on the same side",
		},
		Strategy: "Trade in the direction of a confirmed cross. Stop loss beyond the 50-day average. Exit on the opposite cross.",
	},
	model.KindMACDCrossover: {
		Name:        "MACD Crossover",
		Type:        "Momentum Shift",
		Bias:        model.BiasNeutral,
		Description: "The MACD line crosses its signal line, marking a shift in short-term momentum.",
		Signals: []string{
			"MACD line crosses the signal line",
			"Confirmed after the new order holds for 3 bars",
			"Reported for 20 bars after the cross",
			"Crosses below zero carry more weight for longs",
		},
		Strategy: "Enter in the cross direction once confirmed. Stop loss at the recent swing. Exit when the histogram flips sign.",
	},
	model.KindVCP: {
		Name:        "Volatility Contraction Pattern",
		Type:        "Bullish Continuation",
		Bias:        model.BiasBullish,
		Description: "A base where each pullback is shallower than the one before while volume dries up, showing supply being absorbed.",
		Signals: []string{
			"Successive pullbacks shrink in depth",
			"Volume declines through the base",
			"Price holds near the top of the range",
			"Three or more contractions make it strong",
		},
		Strategy: "Buy the breakout above the last contraction high on rising volume. Stop loss below the last contraction low.",
	},
	model.KindBreakoutSetup: {
		Name:        "Breakout Setup",
		Type:        "Bullish Continuation",
		Bias:        model.BiasBullish,
		Description: "A volatility contraction with price pressing within a few percent of its recent high, ready for a breakout.",
		Signals: []string{
			"VCP present",
			"Close within 5% of the lookback high",
			"Tight recent range",
			"Volume below average before the move",
		},
		Strategy: "Place a buy stop just above the recent high. Stop loss below the pivot low. Cancel if price falls back into the base.",
	},

	model.KindHeadAndShoulders: {
		Name:        "Head and Shoulders",
		Type:        "Bearish Reversal",
		Bias:        model.BiasBearish,
		Reliability: model.ReliabilityHigh,
		Description: "A bearish reversal pattern that forms after an uptrend. It consists of three peaks with the middle peak (head) being the highest, and two lower peaks (shoulders) on either side.",
		Signals: []string{
			"Forms at the end of an uptrend",
			"Three consecutive peaks with middle one highest",
			"Breakdown below neckline confirms pattern",
			"Volume increases on breakdown",
		},
		Strategy: "Enter short when price breaks below neckline with volume. Stop loss above right shoulder. Target is the distance from head to neckline projected downward.",
	},
	model.KindInverseHeadAndShoulders: {
		Name:        "Inverse Head and Shoulders",
		Type:        "Bullish Reversal",
		Bias:        model.BiasBullish,
		Reliability: model.ReliabilityHigh,
		Description: "A bullish reversal pattern that forms after a downtrend. It consists of three troughs with the middle trough (head) being the deepest, and two shallower troughs (shoulders) on either side.",
		Signals: []string{
			"Forms at the end of a downtrend",
			"Three consecutive troughs with middle one lowest",
			"Breakout above neckline confirms pattern",
			"Volume typically increases on breakout",
		},
		Strategy: "Enter long position when price breaks above the neckline with increased volume. Set stop loss below the right shoulder. Target is the distance from head to neckline projected upward.",
	},
	model.KindDoubleTop: {
		Name:        "Double Top",
		Type:        "Bearish Reversal",
		Bias:        model.BiasBearish,
		Reliability: model.ReliabilityHigh,
		Description: "A bearish reversal pattern characterized by two consecutive peaks at approximately the same price level, resembling the letter \"M\".",
		Signals: []string{
			"Two distinct highs at similar price levels",
			"Trough between the two tops",
			"Breakdown below support confirms pattern",
			"Second top often has lower volume",
		},
		Strategy: "Enter short when price breaks below the trough between tops. Stop loss above the second top. Target equals the height of the pattern subtracted from breakdown point.",
	},
	model.KindDoubleBottom: {
		Name:        "Double Bottom",
		Type:        "Bullish Reversal",
		Bias:        model.BiasBullish,
		Reliability: model.ReliabilityHigh,
		Description: "A bullish reversal pattern characterized by two consecutive troughs at approximately the same price level, resembling the letter \"W\".",
		Signals: []string{
			"Two distinct lows at similar price levels",
			"Peak between the two bottoms",
			"Breakout above resistance confirms pattern",
			"Second bottom often has lower volume",
		},
		Strategy: "Enter when price breaks above the peak between the two bottoms. Stop loss below the second bottom. Target equals the height of the pattern added to breakout point.",
	},
	model.KindCupAndHandle: {
		Name:        "Cup and Handle",
		Type:        "Bullish Continuation",
		Bias:        model.BiasBullish,
		Reliability: model.ReliabilityHigh,
		Description: "A bullish continuation pattern that resembles a teacup. The cup is a rounded bottom, and the handle is a slight downward drift after the cup formation.",
		Signals: []string{
			"U-shaped cup formation (not V-shaped)",
			"Handle forms in upper third of cup",
			"Handle should drift downward or sideways",
			"Breakout above handle resistance",
		},
		Strategy: "Buy when price breaks above the handle resistance. Stop loss at the bottom of the handle. Target is the depth of the cup added to the breakout point.",
	},
	model.KindAscendingTriangle: {
		Name:        "Ascending Triangle",
		Type:        "Bullish Continuation",
		Bias:        model.BiasBullish,
		Reliability: model.ReliabilityMediumHigh,
		Description: "A bullish continuation pattern with a flat upper resistance line and rising lower support line, indicating accumulation.",
		Signals: []string{
			"Horizontal resistance at the top",
			"Rising support line at the bottom",
			"At least two touches on each line",
			"Breakout typically occurs upward",
		},
		Strategy: "Enter long when price breaks above resistance with volume. Stop loss below the most recent swing low. Target is the height of the triangle at its widest point.",
	},
	model.KindDescendingTriangle: {
		Name:        "Descending Triangle",
		Type:        "Bearish Continuation",
		Bias:        model.BiasBearish,
		Reliability: model.ReliabilityMediumHigh,
		Description: "A bearish continuation pattern with a flat lower support line and descending upper resistance line, indicating distribution.",
		Signals: []string{
			"Horizontal support at the bottom",
			"Descending resistance line at the top",
			"At least two touches on each line",
			"Breakdown typically occurs downward",
		},
		Strategy: "Enter short when price breaks below support with volume. Stop loss above the most recent swing high. Target is the height of the triangle at its widest point.",
	},
	model.KindSymmetricalTriangle: {
		Name:        "Symmetrical Triangle",
		Type:        "Neutral Continuation",
		Bias:        model.BiasNeutral,
		Reliability: model.ReliabilityMedium,
		Description: "A continuation pattern where price converges between a descending resistance line and an ascending support line, indicating consolidation.",
		Signals: []string{
			"Lower highs and higher lows",
			"Converging trendlines",
			"Decreasing volume during formation",
			"Breakout can be in either direction",
		},
		Strategy: "Wait for breakout direction. Enter in breakout direction with volume confirmation. Stop loss on opposite side of triangle. Target equals the height of the triangle.",
	},
	model.KindRisingWedge: {
		Name:        "Rising Wedge",
		Type:        "Bearish Reversal",
		Bias:        model.BiasBearish,
		Reliability: model.ReliabilityMedium,
		Description: "A bearish pattern where both support and resistance lines slope upward, but converge, indicating weakening momentum.",
		Signals: []string{
			"Both trendlines slope upward",
			"Lines converge (narrowing pattern)",
			"Volume typically decreases",
			"Breakdown below support line",
		},
		Strategy: "Short when price breaks below support line. Stop loss above recent high. Target is measured move equal to the widest part of the wedge.",
	},
	model.KindFallingWedge: {
		Name:        "Falling Wedge",
		Type:        "Bullish Reversal",
		Bias:        model.BiasBullish,
		Reliability: model.ReliabilityMedium,
		Description: "A bullish pattern where both support and resistance lines slope downward, but converge, indicating selling pressure is drying up.",
		Signals: []string{
			"Both trendlines slope downward",
			"Lines converge (narrowing pattern)",
			"Volume typically decreases",
			"Breakout above resistance line",
		},
		Strategy: "Buy when price breaks above resistance line. Stop loss below recent low. Target is measured move equal to the widest part of the wedge.",
	},
	model.KindRectangle: {
		Name:        "Rectangle",
		Type:        "Neutral Continuation",
		Bias:        model.BiasNeutral,
		Reliability: model.ReliabilityMedium,
		Description: "A consolidation pattern with horizontal support and resistance lines, indicating a trading range before continuation.",
		Signals: []string{
			"Horizontal support and resistance",
			"Price bounces between levels",
			"At least two touches on each level",
			"Breakout determines direction",
		},
		Strategy: "Trade the range or wait for breakout. On breakout, enter in direction of break. Stop loss inside rectangle. Target equals rectangle height.",
	},
	model.KindBullFlag: {
		Name:        "Bullish Flag",
		Type:        "Bullish Continuation",
		Bias:        model.BiasBullish,
		Reliability: model.ReliabilityMedium,
		Description: "A short-term continuation pattern that resembles a flag on a pole. Forms after a strong upward move (flagpole) followed by a consolidation (flag).",
		Signals: []string{
			"Sharp upward move (flagpole)",
			"Rectangular consolidation sloping slightly down",
			"Typically lasts 1-3 weeks",
			"Breakout resumes uptrend",
		},
		Strategy: "Buy on breakout above flag resistance. Stop loss below flag support. Target equals flagpole height added to breakout point.",
	},
	model.KindBearFlag: {
		Name:        "Bearish Flag",
		Type:        "Bearish Continuation",
		Bias:        model.BiasBearish,
		Reliability: model.ReliabilityMedium,
		Description: "A short-term continuation pattern that forms after a strong downward move (flagpole) followed by a consolidation (flag).",
		Signals: []string{
			"Sharp downward move (flagpole)",
			"Rectangular consolidation sloping slightly up",
			"Typically lasts 1-3 weeks",
			"Breakdown resumes downtrend",
		},
		Strategy: "Sell on breakdown below flag support. Stop loss above flag resistance. Target equals flagpole height subtracted from breakdown point.",
	},
	model.KindPennant: {
		Name:        "Pennant",
		Type:        "Neutral Continuation",
		Bias:        model.BiasNeutral,
		Reliability: model.ReliabilityMedium,
		Description: "A short-term continuation pattern that forms after a strong move, characterized by converging trendlines forming a small symmetrical triangle.",
		Signals: []string{
			"Forms after strong directional move",
			"Small symmetrical triangle shape",
			"Typically lasts 1-3 weeks",
			"Breakout usually continues prior trend",
		},
		Strategy: "Enter in direction of prior trend on breakout. Stop loss on opposite side of pennant. Target equals the flagpole length.",
	},

	model.KindDoji: {
		Name:        "Doji",
		Type:        "Neutral/Reversal",
		Bias:        model.BiasNeutral,
		Reliability: model.ReliabilityMedium,
		Description: "A single candle where open and close are virtually equal, indicating indecision in the market.",
		Signals: []string{
			"Open equals close (or very close)",
			"Can have upper and lower shadows",
			"Indicates market indecision",
			"Context determines direction",
		},
		Strategy: "Wait for confirmation candle. Trade in direction of confirmation. Stop loss beyond doji range.",
	},
	model.KindSpinningTop: {
		Name:        "Spinning Top",
		Type:        "Neutral",
		Bias:        model.BiasNeutral,
		Reliability: model.ReliabilityLowMedium,
		Description: "A candle with a small body and long shadows on both sides, showing indecision and potential reversal.",
		Signals: []string{
			"Small real body",
			"Long upper and lower shadows",
			"Shows indecision",
			"Can signal trend change",
		},
		Strategy: "Wait for directional confirmation. Trade breakout direction. Use tight stops.",
	},
	model.KindHighWave: {
		Name:        "High Wave",
		Type:        "Neutral",
		Bias:        model.BiasNeutral,
		Reliability: model.ReliabilityMedium,
		Description: "Similar to spinning top but with extremely long shadows, indicating high volatility and uncertainty.",
		Signals: []string{
			"Very small body",
			"Extremely long shadows",
			"High volatility",
			"Major indecision",
		},
		Strategy: "Avoid trading until clear direction emerges. Wait for strong confirmation candle.",
	},
	model.KindHammer: {
		Name:        "Hammer",
		Type:        "Bullish Reversal",
		Bias:        model.BiasBullish,
		Reliability: model.ReliabilityHigh,
		Description: "A single candlestick pattern with a small body at the top and a long lower shadow (at least twice the body length). Indicates potential reversal from downtrend.",
		Signals: []string{
			"Small real body at upper end of range",
			"Long lower shadow (2-3x body length)",
			"Little or no upper shadow",
			"Appears after a downtrend",
		},
		Strategy: "Enter long position after confirmation candle closes above hammer high. Stop loss below hammer low. Target previous resistance levels.",
	},
	model.KindHangingMan: {
		Name:        "Hanging Man",
		Type:        "Bearish Reversal",
		Bias:        model.BiasBearish,
		Reliability: model.ReliabilityMediumHigh,
		Description: "Similar to hammer but appears at top of uptrend. Small body at top with long lower shadow signals potential reversal.",
		Signals: []string{
			"Small body at upper range",
			"Long lower shadow",
			"Appears after uptrend",
			"Requires bearish confirmation",
		},
		Strategy: "Wait for bearish confirmation. Enter short when next candle closes below hanging man low. Stop loss above high.",
	},
	model.KindInvertedHammer: {
		Name:        "Inverted Hammer",
		Type:        "Bullish Reversal",
		Bias:        model.BiasBullish,
		Reliability: model.ReliabilityMediumHigh,
		Description: "A single candlestick with a small body at the bottom and a long upper shadow. Signals potential reversal when found at the bottom of a downtrend.",
		Signals: []string{
			"Small real body at lower end of range",
			"Long upper shadow (2-3x body length)",
			"Little or no lower shadow",
			"Requires bullish confirmation",
		},
		Strategy: "Wait for bullish confirmation candle. Enter long when next candle closes above inverted hammer high. Stop loss below the low.",
	},
	model.KindShootingStar: {
		Name:        "Shooting Star",
		Type:        "Bearish Reversal",
		Bias:        model.BiasBearish,
		Reliability: model.ReliabilityHigh,
		Description: "A single candlestick with a small body at the bottom and a long upper shadow. Indicates potential reversal from uptrend.",
		Signals: []string{
			"Small real body at lower end",
			"Long upper shadow (2-3x body)",
			"Little or no lower shadow",
			"Appears after uptrend",
		},
		Strategy: "Enter short after confirmation candle closes below shooting star low. Stop loss above high. Target support levels.",
	},
	model.KindBullishEngulfing: {
		Name:        "Bullish Engulfing",
		Type:        "Bullish Reversal",
		Bias:        model.BiasBullish,
		Reliability: model.ReliabilityHigh,
		Description: "A two-candle pattern where a large bullish candle completely engulfs the previous bearish candle. Strong reversal signal.",
		Signals: []string{
			"First candle is bearish",
			"Second candle is bullish and larger",
			"Second candle body engulfs first",
			"Appears after downtrend",
		},
		Strategy: "Enter long after engulfing candle closes. Stop loss below the low of the pattern. Target equals pattern height projected upward.",
	},
	model.KindBearishEngulfing: {
		Name:        "Bearish Engulfing",
		Type:        "Bearish Reversal",
		Bias:        model.BiasBearish,
		Reliability: model.ReliabilityHigh,
		Description: "A two-candle pattern where a large bearish candle completely engulfs the previous bullish candle.",
		Signals: []string{
			"First candle is bullish",
			"Second candle is bearish and larger",
			"Second body engulfs first",
			"Appears after uptrend",
		},
		Strategy: "Enter short after engulfing candle closes. Stop loss above pattern high. Target equals pattern height projected down.",
	},
	model.KindBullishHarami: {
		Name:        "Bullish Harami",
		Type:        "Bullish Reversal",
		Bias:        model.BiasBullish,
		Reliability: model.ReliabilityMedium,
		Description: "A two-candle pattern where a small bullish candle is contained within the previous large bearish candle.",
		Signals: []string{
			"First candle is large bearish",
			"Second candle is small bullish",
			"Second contained within first",
			"Indicates trend exhaustion",
		},
		Strategy: "Wait for confirmation. Enter long when price breaks above pattern high. Stop loss below pattern low.",
	},
	model.KindBearishHarami: {
		Name:        "Bearish Harami",
		Type:        "Bearish Reversal",
		Bias:        model.BiasBearish,
		Reliability: model.ReliabilityMedium,
		Description: "A two-candle pattern where a small bearish candle is contained within the previous large bullish candle.",
		Signals: []string{
			"First candle is large bullish",
			"Second candle is small bearish",
			"Second contained within first",
			"Indicates trend exhaustion",
		},
		Strategy: "Wait for confirmation. Enter short when price breaks below pattern low. Stop loss above pattern high.",
	},
	model.KindPiercingLine: {
		Name:        "Piercing Line",
		Type:        "Bullish Reversal",
		Bias:        model.BiasBullish,
		Reliability: model.ReliabilityMediumHigh,
		Description: "A two-candle pattern where a bullish candle opens below the previous bearish close and closes above its midpoint.",
		Signals: []string{
			"First candle is bearish",
			"Second opens below first close",
			"Second closes above first midpoint",
			"Strong buying pressure",
		},
		Strategy: "Enter long after pattern completes. Stop loss below second candle low. Target previous swing high.",
	},
	model.KindDarkCloudCover: {
		Name:        "Dark Cloud Cover",
		Type:        "Bearish Reversal",
		Bias:        model.BiasBearish,
		Reliability: model.ReliabilityMediumHigh,
		Description: "A two-candle pattern where a bearish candle opens above the previous bullish close and closes below its midpoint.",
		Signals: []string{
			"First candle is bullish",
			"Second opens above first close",
			"Second closes below first midpoint",
			"Strong selling pressure",
		},
		Strategy: "Enter short after pattern completes. Stop loss above second candle high. Target previous swing low.",
	},
	model.KindMorningStar: {
		Name:        "Morning Star",
		Type:        "Bullish Reversal",
		Bias:        model.BiasBullish,
		Reliability: model.ReliabilityHigh,
		Description: "A three-candle pattern signaling the end of a downtrend. Consists of a bearish candle, a small-bodied candle, and a bullish candle.",
		Signals: []string{
			"First candle: Long bearish",
			"Second candle: Small body (star)",
			"Third candle: Long bullish",
			"Third closes above first midpoint",
		},
		Strategy: "Enter long after third candle confirms. Stop loss below star candle low. Target previous resistance or measured move.",
	},
	model.KindEveningStar: {
		Name:        "Evening Star",
		Type:        "Bearish Reversal",
		Bias:        model.BiasBearish,
		Reliability: model.ReliabilityHigh,
		Description: "A three-candle pattern signaling the end of an uptrend. Consists of a bullish candle, a small-bodied candle, and a bearish candle.",
		Signals: []string{
			"First candle: Long bullish",
			"Second candle: Small body (star)",
			"Third candle: Long bearish",
			"Third closes below first midpoint",
		},
		Strategy: "Enter short after third candle confirms. Stop loss above star candle high. Target previous support levels.",
	},
	model.KindThreeWhiteSoldiers: {
		Name:        "Three White Soldiers",
		Type:        "Bullish Reversal",
		Bias:        model.BiasBullish,
		Reliability: model.ReliabilityHigh,
		Description: "Three consecutive long bullish candles with higher closes, indicating strong buying momentum.",
		Signals: []string{
			"Three consecutive bullish candles",
			"Each opens within previous body",
			"Each closes near its high",
			"Progressive upward movement",
		},
		Strategy: "Enter on pullback after pattern. Stop loss below first candle low. Watch for overbought conditions.",
	},
	model.KindThreeBlackCrows: {
		Name:        "Three Black Crows",
		Type:        "Bearish Reversal",
		Bias:        model.BiasBearish,
		Reliability: model.ReliabilityHigh,
		Description: "Three consecutive long bearish candles with lower closes, indicating strong selling momentum.",
		Signals: []string{
			"Three consecutive bearish candles",
			"Each opens within previous body",
			"Each closes near its low",
			"Progressive downward movement",
		},
		Strategy: "Enter on bounce after pattern. Stop loss above first candle high. Watch for oversold conditions.",
	},
	model.KindTweezerTop: {
		Name:        "Tweezer Top",
		Type:        "Bearish Reversal",
		Bias:        model.BiasBearish,
		Reliability: model.ReliabilityMedium,
		Description: "Two or more candles with matching highs, indicating strong resistance and potential reversal.",
		Signals: []string{
			"Two consecutive candles",
			"Matching or near-matching highs",
			"First candle bullish, second bearish",
			"Shows resistance level",
		},
		Strategy: "Enter after bearish confirmation. Stop loss above tweezer highs. Target previous support.",
	},
	model.KindTweezerBottom: {
		Name:        "Tweezer Bottom",
		Type:        "Bullish Reversal",
		Bias:        model.BiasBullish,
		Reliability: model.ReliabilityMedium,
		Description: "Two or more candles with matching lows, indicating strong support and potential reversal.",
		Signals: []string{
			"Two consecutive candles",
			"Matching or near-matching lows",
			"First candle bearish, second bullish",
			"Shows support level",
		},
		Strategy: "Enter after bullish confirmation. Stop loss below tweezer lows. Target previous resistance.",
	},
}

// Lookup returns the catalog entry for kind.
func Lookup(kind model.PatternKind) (Entry, bool) {
	e, ok := catalog[kind]
	if !ok {
		return Entry{}, false
	}
	e.Kind = kind
	e.Family = kind.Family()
	return e, true
}

// Catalog lists every known kind in declaration order.
func Catalog() []Entry {
	out := make([]Entry, 0, len(catalog))
	for _, k := range model.AllKinds() {
		if e, ok := Lookup(k); ok {
			out = append(out, e)
		}
	}
	return out
}

// shape builds a detected shape result with the catalog defaults.
func shape(kind model.PatternKind, conf model.Confidence, desc string) model.PatternResult {
	e, _ := Lookup(kind)
	return model.PatternResult{
		Kind:        kind,
		Status:      statusFor(e.Bias),
		Confidence:  conf,
		Bias:        e.Bias,
		Reliability: e.Reliability,
		Description: desc,
	}
}

func statusFor(b model.Bias) model.Status {
	switch b {
	case model.BiasBullish:
		return model.StatusBullish
	case model.BiasBearish:
		return model.StatusBearish
	default:
		return model.StatusConfirmed
	}
}
