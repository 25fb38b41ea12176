package trends

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"

	"github.com/trendscout/trendscout/pkg/models"
)

var monthNames = []string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

// SyntheticSeries generates a plausible interest series for when the trend
// agent cannot be reached. The generator is seeded from the request
// parameters, so the same request always yields the same series: an upward
// drift across years, a yearly seasonal wave, and bounded noise, clamped to
// the 0..100 interest scale.
func SyntheticSeries(keywords, region string, startYear, endYear int) *models.TrendSeries {
	rng := rand.New(rand.NewSource(seriesSeed(keywords, region, startYear, endYear)))

	span := float64(endYear - startYear + 1)
	data := make([]models.TrendPoint, 0, (endYear-startYear+1)*12)

	for year := startYear; year <= endYear; year++ {
		yearProgress := float64(year-startYear) / span
		for m := 0; m < 12; m++ {
			base := 30 + 40*yearProgress
			seasonality := 10 * math.Sin(2*math.Pi*float64(m)/12)
			noise := (rng.Float64() - 0.5) * 15

			value := int(math.Round(base + seasonality + noise))
			if value < 0 {
				value = 0
			}
			if value > 100 {
				value = 100
			}

			data = append(data, models.TrendPoint{
				Year:  year,
				Month: fmt.Sprintf("%s %d", monthNames[m], year),
				Value: value,
			})
		}
	}

	return &models.TrendSeries{
		Keywords:  keywords,
		Region:    region,
		StartYear: startYear,
		EndYear:   endYear,
		Data:      data,
	}
}

func seriesSeed(keywords, region string, startYear, endYear int) int64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%d|%d", keywords, region, startYear, endYear)
	return int64(h.Sum64())
}
