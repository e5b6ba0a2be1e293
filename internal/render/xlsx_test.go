package render_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/mgfn/skycast/internal/provider"
	"github.com/mgfn/skycast/internal/render"
	"github.com/mgfn/skycast/internal/support/exception"
)

var generatedAt = time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)

func sampleInfo() *provider.ForecastInfo {
	return &provider.ForecastInfo{
		Timezone: "Europe/Moscow",
		Days: []provider.DailyForecast{
			{Date: time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC), TemperatureMin: 11.2, TemperatureMax: 18.7, PrecipitationSum: 0.4, WindSpeedMax: 14, WeatherCode: 3},
			{Date: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), TemperatureMin: 9.1, TemperatureMax: 16.3, PrecipitationSum: 2.2, WindSpeedMax: 21, WeatherCode: 61},
		},
	}
}

func TestRenderProducesReadableSpreadsheet(t *testing.T) {
	gen := render.NewXLSXGenerator()

	report, err := gen.Render("Москва", generatedAt, sampleInfo())
	require.NoError(t, err)
	assert.Equal(t, "Прогноз_Москва_2026-08-31.xlsx", report.FileName)
	assert.Contains(t, report.ContentType, "spreadsheetml")
	require.NotEmpty(t, report.Data)

	f, err := excelize.OpenReader(bytes.NewReader(report.Data))
	require.NoError(t, err)
	defer f.Close()

	title, err := f.GetCellValue("Прогноз", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Прогноз погоды: Москва", title)

	date, err := f.GetCellValue("Прогноз", "A3")
	require.NoError(t, err)
	assert.Equal(t, "31.08.2026", date)

	weather, err := f.GetCellValue("Прогноз", "F4")
	require.NoError(t, err)
	assert.Equal(t, "Небольшой дождь", weather)
}

func TestRenderSanitizesLocationInFileName(t *testing.T) {
	gen := render.NewXLSXGenerator()

	report, err := gen.Render(`Москва / Центр`, generatedAt, sampleInfo())
	require.NoError(t, err)
	assert.NotContains(t, report.FileName, "/")
	assert.NotContains(t, report.FileName, " ")
}

func TestRenderWithoutDataIsInvalid(t *testing.T) {
	gen := render.NewXLSXGenerator()

	_, err := gen.Render("Москва", generatedAt, nil)
	assert.True(t, exception.IsInvalidArgument(err))

	_, err = gen.Render("Москва", generatedAt, &provider.ForecastInfo{})
	assert.True(t, exception.IsInvalidArgument(err))
}

func TestRegistryResolvesByFormat(t *testing.T) {
	registry := render.NewRegistry(render.NewXLSXGenerator())

	gen, err := registry.Get(render.FormatXLSX)
	require.NoError(t, err)
	assert.Equal(t, render.FormatXLSX, gen.Format())

	_, err = registry.Get(render.Format("pdf"))
	assert.True(t, exception.IsInvalidArgument(err))
}
