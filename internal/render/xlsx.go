package render

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/mgfn/skycast/internal/provider"
	"github.com/mgfn/skycast/internal/support/exception"
)

// xlsxContentType is the MIME type of .xlsx spreadsheets.
const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const sheetName = "Прогноз"

var columnHeaders = []string{
	"Дата", "Мин. температура, °C", "Макс. температура, °C",
	"Осадки, мм", "Ветер, км/ч", "Погода",
}

// weatherDescriptions maps WMO weather codes to short Russian labels.
var weatherDescriptions = map[int]string{
	0: "Ясно", 1: "Малооблачно", 2: "Переменная облачность", 3: "Пасмурно",
	45: "Туман", 48: "Изморозь",
	51: "Морось", 53: "Морось", 55: "Морось",
	61: "Небольшой дождь", 63: "Дождь", 65: "Сильный дождь",
	71: "Небольшой снег", 73: "Снег", 75: "Сильный снег",
	80: "Ливень", 81: "Ливень", 82: "Сильный ливень",
	95: "Гроза", 96: "Гроза с градом", 99: "Гроза с градом",
}

func describeWeather(code int) string {
	if desc, ok := weatherDescriptions[code]; ok {
		return desc
	}
	return fmt.Sprintf("Код %d", code)
}

// XLSXGenerator renders forecasts as spreadsheets.
type XLSXGenerator struct{}

var _ Generator = (*XLSXGenerator)(nil)

// NewXLSXGenerator creates the spreadsheet generator.
func NewXLSXGenerator() *XLSXGenerator { return &XLSXGenerator{} }

// Format returns "xlsx".
func (g *XLSXGenerator) Format() Format { return FormatXLSX }

// Render produces the spreadsheet: a title row with the location, a header
// row and one row per forecast day. Rendering with no forecast data is
// caller misuse; the workflow skips rendering in that case.
func (g *XLSXGenerator) Render(location string, generatedAt time.Time, info *provider.ForecastInfo) (*Report, error) {
	if info == nil || len(info.Days) == 0 {
		return nil, exception.Newf(exception.KindInvalidArgument, moduleName,
			"no forecast data to render for '%s'", location)
	}
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName(f.GetSheetName(0), sheetName)
	if err := f.SetCellValue(sheetName, "A1", fmt.Sprintf("Прогноз погоды: %s", location)); err != nil {
		return nil, exception.New(exception.KindInternalStorage, moduleName, "failed to write title", err)
	}
	for i, header := range columnHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return nil, exception.New(exception.KindInternalStorage, moduleName, "failed to write header", err)
		}
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		last, _ := excelize.CoordinatesToCellName(len(columnHeaders), 2)
		_ = f.SetCellStyle(sheetName, "A1", last, style)
	}

	for i, day := range info.Days {
		row := i + 3
		values := []interface{}{
			day.Date.Format("02.01.2006"),
			day.TemperatureMin,
			day.TemperatureMax,
			day.PrecipitationSum,
			day.WindSpeedMax,
			describeWeather(day.WeatherCode),
		}
		for j, value := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, row)
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return nil, exception.New(exception.KindInternalStorage, moduleName, "failed to write row", err)
			}
		}
	}
	_ = f.SetColWidth(sheetName, "A", "F", 22)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, exception.New(exception.KindInternalStorage, moduleName, "failed to serialize spreadsheet", err)
	}
	return &Report{
		FileName:    reportFileName(location, generatedAt, FormatXLSX),
		ContentType: xlsxContentType,
		Data:        buf.Bytes(),
	}, nil
}
