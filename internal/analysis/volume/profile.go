package volume

import (
	"sort"

	"hermes/internal/domain/market_data"
)

// ProfileBin represents a price level with accumulated volume
type ProfileBin struct {
	Price  float64
	Volume float64
}

// Profile is a volume-by-price summary of the bar table
type Profile struct {
	POC           float64 // price level with the highest volume
	ValueAreaHigh float64
	ValueAreaLow  float64
	TotalVolume   float64
	TopNodes      []ProfileBin
}

// BuildProfile distributes each candle's volume into price bins at the
// candle's typical price and derives the point of control plus the 70%
// value area. Fewer than 10 bars or a zero price range yields a zero
// Profile.
func BuildProfile(bars []market_data.OHLCV, bins int) Profile {
	if len(bars) < 10 || bins < 2 {
		return Profile{}
	}

	minPrice := bars[0].Low
	maxPrice := bars[0].High
	for _, b := range bars[1:] {
		if b.Low < minPrice {
			minPrice = b.Low
		}
		if b.High > maxPrice {
			maxPrice = b.High
		}
	}

	priceRange := maxPrice - minPrice
	if priceRange <= 0 {
		return Profile{}
	}
	binSize := priceRange / float64(bins)
	volumeByPrice := make([]float64, bins)
	totalVolume := 0.0

	for _, b := range bars {
		typical := (b.High + b.Low + b.Close) / 3
		idx := int((typical - minPrice) / binSize)
		if idx < 0 {
			idx = 0
		}
		if idx >= bins {
			idx = bins - 1
		}
		volumeByPrice[idx] += b.Volume
		totalVolume += b.Volume
	}

	// POC: the bin holding the most volume
	maxVol := 0.0
	pocIndex := 0
	for i, vol := range volumeByPrice {
		if vol > maxVol {
			maxVol = vol
			pocIndex = i
		}
	}

	// Expand value area from POC until it holds 70% of total volume
	targetVol := totalVolume * 0.70
	vaVol := volumeByPrice[pocIndex]
	vaHigh, vaLow := pocIndex, pocIndex

	for vaVol < targetVol && (vaHigh < bins-1 || vaLow > 0) {
		nextHigh := 0.0
		if vaHigh < bins-1 {
			nextHigh = volumeByPrice[vaHigh+1]
		}
		nextLow := 0.0
		if vaLow > 0 {
			nextLow = volumeByPrice[vaLow-1]
		}

		if nextHigh > nextLow && vaHigh < bins-1 {
			vaHigh++
			vaVol += nextHigh
		} else if vaLow > 0 {
			vaLow--
			vaVol += nextLow
		} else {
			break
		}
	}

	nodes := make([]ProfileBin, 0, bins)
	for i, vol := range volumeByPrice {
		if vol > 0 {
			nodes = append(nodes, ProfileBin{
				Price:  minPrice + (float64(i)+0.5)*binSize,
				Volume: vol,
			})
		}
	}
	sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].Volume > nodes[j].Volume })
	if len(nodes) > 5 {
		nodes = nodes[:5]
	}

	return Profile{
		POC:           minPrice + (float64(pocIndex)+0.5)*binSize,
		ValueAreaHigh: minPrice + float64(vaHigh+1)*binSize,
		ValueAreaLow:  minPrice + float64(vaLow)*binSize,
		TotalVolume:   totalVolume,
		TopNodes:      nodes,
	}
}
