package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/tradeforge/matching-engine/config"
	"github.com/tradeforge/matching-engine/internal/logger"
	"github.com/tradeforge/matching-engine/internal/matching"
	"github.com/tradeforge/matching-engine/internal/notify"
	"github.com/tradeforge/matching-engine/internal/storage"
	"github.com/tradeforge/matching-engine/internal/storage/file"
	"github.com/tradeforge/matching-engine/internal/storage/memory"
	"github.com/tradeforge/matching-engine/internal/storage/postgres"
	"github.com/tradeforge/matching-engine/internal/storage/redis"
	"github.com/tradeforge/matching-engine/internal/types"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.SetMinLevel(logger.ParseLevel(cfg.Logger.Level))

	logger.Info("Starting matching engine", map[string]interface{}{
		"trade_history": cfg.Engine.TradeHistorySize,
	})

	orderStore, tradeStore := buildStorageLayers(cfg)
	sink, sinkClosers := buildNotifiers(cfg)

	engine := matching.NewEngineWithConfig(&matching.EngineConfig{
		TradeHistorySize: cfg.Engine.TradeHistorySize,
		OrderStore:       orderStore,
		TradeStore:       tradeStore,
		Notifier:         sink,
	})
	defer func() {
		if err := engine.Close(); err != nil {
			logger.Error("Failed to close engine", map[string]interface{}{
				"error": err.Error(),
			})
		}
		if err := sink.Close(); err != nil {
			logger.Error("Failed to close notifier", map[string]interface{}{
				"error": err.Error(),
			})
		}
		// Close the wrapped sinks only after the dispatcher has drained
		for _, closer := range sinkClosers {
			if err := closer.Close(); err != nil {
				logger.Error("Failed to close event sink", map[string]interface{}{
					"error": err.Error(),
				})
			}
		}
	}()

	runShell(engine)
}

// buildStorageLayers constructs the order/trade mirrors based on
// configuration, layering memory, Redis, Postgres and the file audit
// log into composite stores.
func buildStorageLayers(cfg *config.Config) (storage.OrderStore, storage.TradeStore) {
	var orderStores []storage.OrderStore
	var tradeStores []storage.TradeStore

	// L1: In-memory (fastest) - if enabled
	if cfg.Memory.Enabled {
		orderStores = append(orderStores, memory.NewInMemoryOrderStore(cfg.Memory.MaxOrders))
		tradeStores = append(tradeStores, memory.NewInMemoryTradeStore(cfg.Memory.MaxTrades))

		logger.Info("In-memory storage layer enabled", map[string]interface{}{
			"max_orders": cfg.Memory.MaxOrders,
			"max_trades": cfg.Memory.MaxTrades,
		})
	}

	// L2: Redis (distributed cache) - if enabled
	if cfg.Redis.Enabled {
		redisCfg := redis.RedisConfig{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			MaxRetries:   cfg.Redis.MaxRetries,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			TLSEnabled:   cfg.Redis.TLSEnabled,
			OrderTTL:     cfg.Redis.OrderTTL,
			MaxTrades:    cfg.Redis.MaxTrades,
		}

		redisOrderStore, err := redis.NewRedisOrderStore(redisCfg)
		if err != nil {
			logger.Warn("Failed to connect to Redis, continuing without distributed cache", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			logger.Info("Redis cache connected successfully", map[string]interface{}{
				"host": cfg.Redis.Host,
				"port": cfg.Redis.Port,
			})
			orderStores = append(orderStores, redisOrderStore)

			if redisTradeStore, err := redis.NewRedisTradeStore(redisCfg); err == nil {
				tradeStores = append(tradeStores, redisTradeStore)
			}
		}
	}

	// L3: PostgreSQL (durable mirror) - if enabled
	if cfg.Database.Enabled {
		pgCfg := postgres.PostgresConfig{
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			Database:        cfg.Database.Name,
			User:            cfg.Database.User,
			Password:        cfg.Database.Password,
			MaxConns:        cfg.Database.MaxConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			SSLMode:         cfg.Database.SSLMode,
		}

		pgOrderStore, err := postgres.NewPostgresOrderStore(pgCfg)
		if err != nil {
			logger.Warn("Failed to connect to PostgreSQL, continuing without durable mirror", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			logger.Info("PostgreSQL connected successfully", map[string]interface{}{
				"host":     cfg.Database.Host,
				"database": cfg.Database.Name,
			})
			orderStores = append(orderStores, pgOrderStore)

			if pgTradeStore, err := postgres.NewPostgresTradeStore(pgCfg); err == nil {
				tradeStores = append(tradeStores, pgTradeStore)
			}
		}
	}

	// L4: File audit log - always enabled
	if fileTradeStore, err := file.NewFileTradeStore(cfg.Engine.TradeLogPath); err == nil {
		tradeStores = append(tradeStores, fileTradeStore)
		logger.Info("Trade file log enabled", map[string]interface{}{
			"path": cfg.Engine.TradeLogPath,
		})
	}

	var orderStore storage.OrderStore
	var tradeStore storage.TradeStore

	if len(orderStores) == 1 {
		orderStore = orderStores[0]
	} else {
		orderStore = storage.NewCompositeOrderStore(orderStores...)
	}

	if len(tradeStores) == 1 {
		tradeStore = tradeStores[0]
	} else {
		tradeStore = storage.NewCompositeTradeStore(tradeStores...)
	}

	logger.Info("Storage layers initialized", map[string]interface{}{
		"order_layers": len(orderStores),
		"trade_layers": len(tradeStores),
	})

	return orderStore, tradeStore
}

// buildNotifiers assembles the event sinks behind an async dispatcher
// so matching never blocks on delivery. The returned closers belong to
// the wrapped sinks and must be closed after the dispatcher drains.
func buildNotifiers(cfg *config.Config) (*notify.AsyncNotifier, []io.Closer) {
	sinks := []notify.Notifier{notify.NewLogNotifier(nil)}
	var closers []io.Closer

	if cfg.Kafka.Enabled {
		kafkaSink := notify.NewKafkaNotifier(notify.KafkaConfig{
			Brokers:     cfg.Kafka.Brokers,
			TopicPrefix: cfg.Kafka.TopicPrefix,
		})
		sinks = append(sinks, kafkaSink)
		closers = append(closers, kafkaSink)
		logger.Info("Kafka event sink enabled", map[string]interface{}{
			"brokers": strings.Join(cfg.Kafka.Brokers, ","),
			"prefix":  cfg.Kafka.TopicPrefix,
		})
	}

	return notify.NewAsync(notify.NewMulti(sinks...), cfg.Engine.NotifyBufferSize), closers
}

const shellHelp = `Commands:
  place <user> <symbol> <buy|sell> <market|limit> <qty> [price]
  modify <order_id> [price=<p>] [qty=<q>]
  cancel <order_id>
  book <symbol>
  order <order_id>
  trades [limit]
  help
  exit`

// runShell drives the engine from stdin, one command per line
func runShell(engine *matching.Engine) {
	fmt.Println("Matching engine shell. Type 'help' for commands.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch strings.ToLower(fields[0]) {
		case "place":
			shellPlace(engine, fields[1:])
		case "modify":
			shellModify(engine, fields[1:])
		case "cancel":
			shellCancel(engine, fields[1:])
		case "book":
			shellBook(engine, fields[1:])
		case "order":
			shellOrder(engine, fields[1:])
		case "trades":
			shellTrades(engine, fields[1:])
		case "help":
			fmt.Println(shellHelp)
		case "exit", "quit":
			fmt.Println("Goodbye.")
			return
		default:
			fmt.Printf("Unknown command %q. Type 'help' for commands.\n", fields[0])
		}
	}
}

func shellPlace(engine *matching.Engine, args []string) {
	if len(args) < 5 {
		fmt.Println("Usage: place <user> <symbol> <buy|sell> <market|limit> <qty> [price]")
		return
	}

	side := types.ParseSide(args[2])
	orderType := types.ParseOrderType(args[3])

	qty, err := strconv.Atoi(args[4])
	if err != nil {
		fmt.Printf("Invalid quantity %q\n", args[4])
		return
	}

	var price float64
	if len(args) > 5 {
		price, err = strconv.ParseFloat(args[5], 64)
		if err != nil {
			fmt.Printf("Invalid price %q\n", args[5])
			return
		}
	}

	order, trades, err := engine.PlaceOrder(matching.OrderRequest{
		UserID:    args[0],
		Symbol:    strings.ToUpper(args[1]),
		Side:      side,
		OrderType: orderType,
		Price:     price,
		Quantity:  qty,
	})
	if err != nil {
		fmt.Printf("Rejected: %v\n", err)
		return
	}

	fmt.Printf("Accepted %s, %d trade(s)\n", order, len(trades))
	for _, trade := range trades {
		fmt.Printf("  trade %d: %d @ %.2f (buy %d / sell %d)\n",
			trade.TradeID, trade.Size, trade.Price, trade.BuyOrderID, trade.SellOrderID)
	}
}

func shellModify(engine *matching.Engine, args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: modify <order_id> [price=<p>] [qty=<q>]")
		return
	}

	orderID, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		fmt.Printf("Invalid order id %q\n", args[0])
		return
	}

	var newPrice *float64
	var newQty *int
	for _, arg := range args[1:] {
		switch {
		case strings.HasPrefix(arg, "price="):
			p, err := strconv.ParseFloat(strings.TrimPrefix(arg, "price="), 64)
			if err != nil {
				fmt.Printf("Invalid price in %q\n", arg)
				return
			}
			newPrice = &p
		case strings.HasPrefix(arg, "qty="):
			q, err := strconv.Atoi(strings.TrimPrefix(arg, "qty="))
			if err != nil {
				fmt.Printf("Invalid quantity in %q\n", arg)
				return
			}
			newQty = &q
		default:
			fmt.Printf("Unknown argument %q\n", arg)
			return
		}
	}

	order, trades, err := engine.ModifyOrder(orderID, newPrice, newQty)
	if err != nil {
		fmt.Printf("Modify failed: %v\n", err)
		return
	}

	fmt.Printf("Modified %s, %d trade(s)\n", order, len(trades))
}

func shellCancel(engine *matching.Engine, args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: cancel <order_id>")
		return
	}

	orderID, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		fmt.Printf("Invalid order id %q\n", args[0])
		return
	}

	if engine.CancelOrder(orderID) {
		fmt.Printf("Cancelled order %d\n", orderID)
	} else {
		fmt.Printf("Order %d not open\n", orderID)
	}
}

func shellBook(engine *matching.Engine, args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: book <symbol>")
		return
	}

	snapshot, err := engine.BookSnapshot(strings.ToUpper(args[0]))
	if err != nil {
		fmt.Printf("No book for %q\n", args[0])
		return
	}

	fmt.Printf("--- %s ---\n", snapshot.Symbol)
	fmt.Println("Asks:")
	for i := len(snapshot.Asks) - 1; i >= 0; i-- {
		level := snapshot.Asks[i]
		fmt.Printf("  %10.2f  x %-6d (%d order(s))\n", level.Price, level.Quantity, level.OrderCount)
	}
	fmt.Println("Bids:")
	for _, level := range snapshot.Bids {
		fmt.Printf("  %10.2f  x %-6d (%d order(s))\n", level.Price, level.Quantity, level.OrderCount)
	}
}

func shellOrder(engine *matching.Engine, args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: order <order_id>")
		return
	}

	orderID, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		fmt.Printf("Invalid order id %q\n", args[0])
		return
	}

	order := engine.GetOrder(orderID)
	if order == nil {
		fmt.Printf("Order %d not found\n", orderID)
		return
	}
	fmt.Println(order)
}

func shellTrades(engine *matching.Engine, args []string) {
	limit := 20
	if len(args) > 0 {
		if parsed, err := strconv.Atoi(args[0]); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	trades := engine.RecentTrades(limit)
	if len(trades) == 0 {
		fmt.Println("No trades yet.")
		return
	}
	for _, trade := range trades {
		fmt.Printf("trade %d %s %d @ %.2f (buy %d / sell %d) %s\n",
			trade.TradeID, trade.Symbol, trade.Size, trade.Price,
			trade.BuyOrderID, trade.SellOrderID, trade.Timestamp.Format("15:04:05.000"))
	}
}
