package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang-stock-indicator/internal/entity"
	"golang-stock-indicator/internal/executor/config"
	"golang-stock-indicator/pkg/logger"
	"golang-stock-indicator/pkg/utils"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	klinePath     = "/api/qt/stock/kline/get"
	stockListPath = "/api/qt/clist/get"

	// Shanghai and Shenzhen A-share boards.
	stockListFilter = "m:0+t:6,m:0+t:80,m:1+t:2,m:1+t:23"
	stockListFields = "f12,f14,f39"
	stockListPage   = 500

	// Upstream volume is quoted in lots of 100 shares.
	sharesPerLot = 100

	maxRetryDelay = 30 * time.Second

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	referer   = "https://quote.eastmoney.com/"
)

// MarketDataRepository fetches daily bars and the symbol universe from the upstream provider.
type MarketDataRepository interface {
	// FetchDailyBars returns the bars of symbol dated in [start, end], ascending. A range with
	// no trading days yields an empty slice, not an error.
	FetchDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]entity.Bar, error)
	// FetchStockList returns every listed Shanghai and Shenzhen A-share.
	FetchStockList(ctx context.Context) ([]entity.Stock, error)
}

type eastMoneyRepository struct {
	cfg            config.Provider
	log            *logger.Logger
	httpClient     *http.Client
	requestLimiter *rate.Limiter
}

// NewEastMoneyRepository creates the EastMoney client. One limiter is shared by every caller,
// so concurrent workers together stay under MaxRequestPerMinute.
func NewEastMoneyRepository(cfg config.Provider, log *logger.Logger) MarketDataRepository {
	perMinute := cfg.MaxRequestPerMinute
	if perMinute <= 0 {
		perMinute = 300
	}
	secondsPerRequest := time.Minute / time.Duration(perMinute)
	return &eastMoneyRepository{
		cfg: cfg,
		log: log,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		requestLimiter: rate.NewLimiter(rate.Every(secondsPerRequest), 1),
	}
}

func (r *eastMoneyRepository) FetchDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]entity.Bar, error) {
	secID, err := SecID(symbol)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("secid", secID)
	q.Set("fields1", "f1,f2,f3,f4,f5,f6")
	q.Set("fields2", "f51,f52,f53,f54,f55,f56,f57,f58,f59,f60,f61")
	q.Set("klt", "101")
	q.Set("fqt", strconv.Itoa(r.cfg.Adjust))
	q.Set("beg", start.Format("20060102"))
	q.Set("end", end.Format("20060102"))

	body, err := r.get(ctx, r.cfg.BaseURL+klinePath+"?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bars for %s: %w", symbol, err)
	}
	return ParseKlines(symbol, body)
}

// ParseKlines decodes a kline response. A null data object means the provider does not
// know the symbol.
func ParseKlines(symbol string, body []byte) ([]entity.Bar, error) {
	data := gjson.GetBytes(body, "data")
	if !data.Exists() || data.Type == gjson.Null {
		return nil, fmt.Errorf("%w: no data for %s", ErrUpstreamRejected, symbol)
	}

	lines := data.Get("klines").Array()
	bars := make([]entity.Bar, 0, len(lines))
	for _, line := range lines {
		bar, err := parseKline(symbol, line.String())
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUpstreamRejected, err)
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

// parseKline decodes "date,open,close,high,low,volume,amount,amplitude,pct,change,turnover".
func parseKline(symbol, line string) (entity.Bar, error) {
	parts := strings.Split(line, ",")
	if len(parts) < 7 {
		return entity.Bar{}, fmt.Errorf("malformed kline %q", line)
	}
	date, err := utils.ParseDate(parts[0])
	if err != nil {
		return entity.Bar{}, fmt.Errorf("malformed kline date %q: %w", parts[0], err)
	}

	nums := make([]float64, len(parts)-1)
	for i, p := range parts[1:] {
		if p == "" || p == "-" {
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return entity.Bar{}, fmt.Errorf("malformed kline field %q: %w", p, err)
		}
		nums[i] = v
	}

	bar := entity.Bar{
		Symbol: symbol,
		Date:   date,
		Open:   nums[0],
		Close:  nums[1],
		High:   nums[2],
		Low:    nums[3],
		Volume: int64(nums[4]) * sharesPerLot,
		Amount: nums[5],
	}
	if len(nums) >= 9 {
		// change = close - previous close
		prev := utils.Round(bar.Close-nums[8], 4)
		bar.PreviousClose = &prev
	}
	if len(nums) >= 10 {
		bar.Turnover = utils.ToPointer(nums[9])
	}
	return bar, nil
}

func (r *eastMoneyRepository) FetchStockList(ctx context.Context) ([]entity.Stock, error) {
	var stocks []entity.Stock
	for page := 1; ; page++ {
		q := url.Values{}
		q.Set("pn", strconv.Itoa(page))
		q.Set("pz", strconv.Itoa(stockListPage))
		q.Set("fs", stockListFilter)
		q.Set("fields", stockListFields)

		body, err := r.get(ctx, r.cfg.ListURL+stockListPath+"?"+q.Encode())
		if err != nil {
			return nil, fmt.Errorf("failed to fetch stock list page %d: %w", page, err)
		}

		total := int(gjson.GetBytes(body, "data.total").Int())
		diff := gjson.GetBytes(body, "data.diff").Array()
		for _, item := range diff {
			code := item.Get("f12").String()
			exchange := entity.ExchangeOf(code)
			if exchange == "" {
				continue
			}
			stock := entity.Stock{
				Symbol:   code + "." + exchange,
				Code:     code,
				Name:     item.Get("f14").String(),
				Exchange: exchange,
				IsActive: true,
			}
			if f := item.Get("f39"); f.Type == gjson.Number && f.Float() > 0 {
				stock.FloatShare = utils.ToPointer(f.Float())
			}
			stocks = append(stocks, stock)
		}

		if len(diff) < stockListPage || page*stockListPage >= total {
			break
		}
	}
	return stocks, nil
}

// SecID converts "600000.SH" to the provider's "1.600000" (Shanghai) or "0.000001" (Shenzhen).
func SecID(symbol string) (string, error) {
	code, exchange, ok := entity.SplitSymbol(symbol)
	if !ok {
		return "", fmt.Errorf("%w: invalid symbol %q", ErrUpstreamRejected, symbol)
	}
	if exchange == entity.ExchangeShanghai {
		return "1." + code, nil
	}
	return "0." + code, nil
}

// retryDelay doubles base for every attempt after the first, capped at maxRetryDelay.
func retryDelay(base time.Duration, attempt int) time.Duration {
	delay := base
	for i := 1; i < attempt && delay < maxRetryDelay; i++ {
		delay *= 2
	}
	if delay > maxRetryDelay {
		return maxRetryDelay
	}
	return delay
}

// get performs a GET with bounded retries. Rejections are returned at once; transient
// failures back off from RetryDelay, or from RetryDelayThrottled after a 429.
func (r *eastMoneyRepository) get(ctx context.Context, rawURL string) ([]byte, error) {
	var lastErr error
	throttled := false
	for attempt := 0; attempt <= r.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			base := r.cfg.RetryDelay
			if throttled {
				base = r.cfg.RetryDelayThrottled
			}
			delay := retryDelay(base, attempt)
			r.log.WarnContext(ctx, "Retrying upstream request",
				zap.String("url", rawURL),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(lastErr))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		body, status, err := r.do(ctx, rawURL)
		if err == nil {
			return body, nil
		}
		if errors.Is(err, ErrUpstreamRejected) || ctx.Err() != nil {
			return nil, err
		}
		lastErr = err
		throttled = status == http.StatusTooManyRequests
	}
	return nil, lastErr
}

func (r *eastMoneyRepository) do(ctx context.Context, rawURL string) ([]byte, int, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrUpstreamRejected, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", referer)
	req.Header.Set("Accept", "application/json, text/plain, */*")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return nil, resp.StatusCode, fmt.Errorf("%w: status %d", ErrUpstreamUnavailable, resp.StatusCode)
	case resp.StatusCode >= http.StatusBadRequest:
		return nil, resp.StatusCode, fmt.Errorf("%w: status %d", ErrUpstreamRejected, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	if !gjson.ValidBytes(body) {
		return nil, resp.StatusCode, fmt.Errorf("%w: invalid json response", ErrUpstreamUnavailable)
	}
	return body, resp.StatusCode, nil
}
