// Command catalog-build scrapes a menu page and writes the dish catalog file.
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/gocolly/colly/v2"

	"github.com/AlexFoxalt/recipes-tg-bot/api/internal/catalog"
	"github.com/AlexFoxalt/recipes-tg-bot/api/internal/logger"
)

const userAgent = "recipes-tg-bot catalog-build"

func main() {
	url := flag.String("url", "https://moondeer.choiceqr.com/section:menyu", "menu page URL")
	out := flag.String("out", "recipes.json", "output catalog path")
	flag.Parse()

	log, err := logger.New("dev")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	dishes, skipped, err := scrape(context.Background(), *url)
	if err != nil {
		log.Fatal("scrape failed", "url", *url, "error", err)
	}
	if skipped > 0 {
		log.Warn("items without a name skipped", "count", skipped)
	}

	data, err := encodeCatalog(dishes)
	if err != nil {
		log.Fatal("encode failed", "error", err)
	}
	// Refuse to write a file the bot could not load.
	if _, err := catalog.Parse(bytes.NewReader(data)); err != nil {
		log.Fatal("scraped catalog is invalid", "error", err)
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		log.Fatal("write failed", "path", *out, "error", err)
	}
	log.Info("catalog written", "path", *out, "dishes", len(dishes))
}

func scrape(ctx context.Context, url string) ([]dish, int, error) {
	c := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.StdlibContext(ctx),
	)

	var (
		raw     []byte
		scanErr error
	)
	c.OnHTML(`script#__NEXT_DATA__`, func(e *colly.HTMLElement) {
		if raw == nil {
			raw = []byte(e.Text)
		}
	})
	c.OnError(func(_ *colly.Response, err error) {
		scanErr = err
	})

	if err := c.Visit(url); err != nil {
		return nil, 0, fmt.Errorf("visit %s: %w", url, err)
	}
	c.Wait()
	if scanErr != nil {
		return nil, 0, scanErr
	}
	if raw == nil {
		return nil, 0, errors.New("__NEXT_DATA__ script not found")
	}
	return parseMenu(raw)
}
