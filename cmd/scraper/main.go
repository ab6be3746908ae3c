package main

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/navid-fn/uniex/configs"
	"github.com/navid-fn/uniex/drivers/aofex"
	"github.com/navid-fn/uniex/drivers/coinmate"
	"github.com/navid-fn/uniex/drivers/indodax"
	"github.com/navid-fn/uniex/drivers/luno"
	"github.com/navid-fn/uniex/exchange"
	"github.com/navid-fn/uniex/scraper"
)

func main() {
	appConfig := configs.AppLoad()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	writer := configs.GetKafkaWriter(&appConfig.KafkaTrade)
	defer writer.Close()

	sender := scraper.NewSender(writer, logger)

	adapters := []exchange.Exchange{
		luno.New(appConfig.Credentials["luno"], logger),
		indodax.New(appConfig.Credentials["indodax"], logger),
		aofex.New(appConfig.Credentials["aofex"], logger),
		coinmate.New(appConfig.Credentials["coinmate"], logger),
	}

	logger.WithFields(logrus.Fields{
		"topic":     appConfig.KafkaTrade.Topic,
		"exchanges": len(adapters),
	}).Info("starting trade scrapers")

	// With a chunk size set, each exchange gets one worker per slice of the
	// configured symbol list instead of a single worker over all of it.
	symbolChunks := [][]string{appConfig.Scraper.Symbols}
	if size := appConfig.Scraper.ChunkSize; size > 0 && len(appConfig.Scraper.Symbols) > 0 {
		symbolChunks = scraper.ChunkSlice(appConfig.Scraper.Symbols, size)
	}

	err := scraper.RunWithGracefulShutdown(logger, func(ctx context.Context, wg *sync.WaitGroup) {
		for _, adapter := range adapters {
			for _, symbols := range symbolChunks {
				worker := scraper.NewTradeWorker(
					adapter, sender, logger,
					symbols,
					appConfig.Scraper.RequestsPerSec,
				)
				wg.Add(1)
				go func() {
					defer wg.Done()
					if err := worker.Run(ctx); err != nil && ctx.Err() == nil {
						logger.WithField("worker", worker.Name()).WithError(err).Error("worker failed")
					}
				}()
			}
		}
	})
	if err != nil {
		logger.WithError(err).Fatal("scraper exited")
	}
	logger.Info("all workers stopped")
}
