package service

import (
	"context"
	"sort"

	"golang-stock-indicator/internal/entity"
	"golang-stock-indicator/internal/executor/repository"
)

// indexNames labels the common benchmark indexes until the universe has been synced.
var indexNames = map[string]string{
	"000300.SH": "沪深300",
	"000001.SH": "上证指数",
	"399001.SZ": "深证成指",
	"399006.SZ": "创业板指",
	"000905.SH": "中证500",
	"000016.SH": "上证50",
}

// indexStocks builds universe entries for the configured index symbols.
func indexStocks(symbols []string) []entity.Stock {
	out := make([]entity.Stock, 0, len(symbols))
	for _, symbol := range symbols {
		code, exchange, ok := entity.SplitSymbol(symbol)
		if !ok {
			continue
		}
		name := indexNames[symbol]
		if name == "" {
			name = symbol
		}
		out = append(out, entity.Stock{
			Symbol:   symbol,
			Code:     code,
			Name:     name,
			Exchange: exchange,
			IsIndex:  true,
			IsActive: true,
		})
	}
	return out
}

// loadUniverse returns the active stocks plus every configured index, ordered by symbol.
// Configured indexes always count as indexes even when the store says otherwise.
func loadUniverse(ctx context.Context, stocksRepo repository.StocksRepository, indexes []string) ([]entity.Stock, error) {
	stocks, err := stocksRepo.GetStocks(ctx)
	if err != nil {
		return nil, err
	}

	bySymbol := make(map[string]entity.Stock, len(stocks)+len(indexes))
	for _, s := range stocks {
		bySymbol[s.Symbol] = s
	}
	for _, idx := range indexStocks(indexes) {
		if s, ok := bySymbol[idx.Symbol]; ok {
			s.IsIndex = true
			bySymbol[idx.Symbol] = s
			continue
		}
		bySymbol[idx.Symbol] = idx
	}

	out := make([]entity.Stock, 0, len(bySymbol))
	for _, s := range bySymbol {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

func indexSet(stocks []entity.Stock) map[string]bool {
	set := make(map[string]bool)
	for _, s := range stocks {
		if s.IsIndex {
			set[s.Symbol] = true
		}
	}
	return set
}
