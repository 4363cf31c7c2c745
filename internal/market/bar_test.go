package market

import (
	"errors"
	"math"
	"testing"
	"time"
)

func validBar(ts time.Time) Bar {
	return Bar{Time: ts, Open: 100, High: 101, Low: 99, Close: 100.5, Volume: 10}
}

func TestBarValidate(t *testing.T) {
	ts := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	if err := validBar(ts).Validate(); err != nil {
		t.Fatalf("正常 K 线不应报错: %v", err)
	}

	b := validBar(ts)
	b.High = 99.5
	if err := b.Validate(); err == nil {
		t.Fatal("high 低于 close 应报错")
	}

	b = validBar(ts)
	b.Low = 100.8
	if err := b.Validate(); err == nil {
		t.Fatal("low 高于 open 应报错")
	}

	b = validBar(ts)
	b.Volume = -1
	if err := b.Validate(); err == nil {
		t.Fatal("负成交量应报错")
	}
}

func TestBarValidateNaNIsAbsentData(t *testing.T) {
	b := validBar(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	b.Close = math.NaN()

	// NaN 字段表示数据缺失, 交给指标层处理, 不算畸形
	if err := b.Validate(); err != nil {
		t.Fatalf("NaN 字段不应视为畸形: %v", err)
	}
}

func TestValidateSeriesOrdering(t *testing.T) {
	ts := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	bars := []Bar{validBar(ts), validBar(ts.Add(5 * time.Minute)), validBar(ts.Add(10 * time.Minute))}

	if err := ValidateSeries(bars); err != nil {
		t.Fatalf("递增序列不应报错: %v", err)
	}

	bars[2].Time = bars[1].Time
	err := ValidateSeries(bars)
	if err == nil {
		t.Fatal("重复时间戳应报错")
	}

	var malformed *MalformedBarError
	if !errors.As(err, &malformed) {
		t.Fatalf("应返回 MalformedBarError, 实际 %T", err)
	}
}
