package seed

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// LoadInventory ingests a name,unit_price,quantity CSV into the inventory
// table, ignoring names that already exist. A missing file is not an error.
func LoadInventory(db *sqlx.DB, csvPath string, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}

	file, err := os.Open(csvPath)
	if err != nil {
		logger.Info("no inventory seed file", zap.String("path", csvPath))
		return
	}
	defer file.Close()

	reader := csv.NewReader(file)
	// Skip header
	if _, err := reader.Read(); err != nil {
		logger.Warn("unable to read inventory seed header", zap.Error(err))
		return
	}

	tx, err := db.Beginx()
	if err != nil {
		logger.Warn("unable to start inventory seed transaction", zap.Error(err))
		return
	}
	stmt, err := tx.Preparex(`INSERT OR IGNORE INTO inventory (name, unit_price, quantity) VALUES (?, ?, ?)`)
	if err != nil {
		logger.Warn("unable to prepare inventory insert", zap.Error(err))
		_ = tx.Rollback()
		return
	}
	defer stmt.Close()

	rows := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.Warn("unable to read inventory seed row", zap.Error(err))
			continue
		}
		if len(record) < 3 {
			continue
		}
		name := strings.TrimSpace(record[0])
		price, priceErr := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		quantity, qtyErr := strconv.ParseInt(strings.TrimSpace(record[2]), 10, 64)
		if name == "" || priceErr != nil || qtyErr != nil || price < 0 || quantity < 0 {
			continue
		}

		if _, err := stmt.Exec(name, price, quantity); err != nil {
			logger.Warn("unable to insert seed item", zap.String("name", name), zap.Error(err))
		} else {
			rows++
		}
	}

	if err := tx.Commit(); err != nil {
		logger.Warn("unable to commit inventory seed", zap.Error(err))
	} else {
		logger.Info("seeded inventory", zap.Int("rows", rows))
	}
}
