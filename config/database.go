package config

import (
	"database/sql"
	"fmt"
	"log"
	"sync"

	_ "github.com/go-sql-driver/mysql"
)

var (
	DB   *sql.DB
	once sync.Once
)

// ConnectDB 连接数据库
func ConnectDB(cfg DatabaseConfig) (*sql.DB, error) {
	return sql.Open("mysql", cfg.DSN())
}

// InitDB 初始化数据库连接
func InitDB(cfg DatabaseConfig) {
	once.Do(func() {
		var err error
		DB, err = ConnectDB(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		if err = DB.Ping(); err != nil {
			log.Fatalf("Failed to ping database: %v", err)
		}

		// 自动迁移数据库
		if err = autoMigrate(DB); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}

		log.Println("Database connected and migrated successfully")
	})
}

// Migrate 在已有连接上执行全部迁移
func Migrate(db *sql.DB) error {
	return autoMigrate(db)
}

// autoMigrate 自动迁移数据库
func autoMigrate(db *sql.DB) error {
	// 创建 migrations 表用于跟踪迁移状态
	if err := createMigrationsTable(db); err != nil {
		return fmt.Errorf("failed to create migrations table: %v", err)
	}

	// 运行所有迁移
	migrations := getMigrations()
	for _, migration := range migrations {
		if err := runMigrationIfNotExists(db, migration); err != nil {
			return fmt.Errorf("failed to run migration %s: %v", migration.Name, err)
		}
	}

	return nil
}

// Migration 迁移结构
type Migration struct {
	Name string
	SQL  string
}

// createMigrationsTable 创建迁移表
func createMigrationsTable(db *sql.DB) error {
	createSQL := `
	CREATE TABLE IF NOT EXISTS migrations (
		id INT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL UNIQUE,
		executed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)
	`
	_, err := db.Exec(createSQL)
	return err
}

// getMigrations 获取所有迁移
func getMigrations() []Migration {
	return []Migration{
		{
			Name: "001_create_operators_table",
			SQL: `
			CREATE TABLE IF NOT EXISTS operators (
				id INT AUTO_INCREMENT PRIMARY KEY,
				username VARCHAR(255) NOT NULL UNIQUE,
				password_hash VARCHAR(255) NOT NULL,
				role INT DEFAULT 0,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			)
			`,
		},
		{
			Name: "002_create_calibration_models_table",
			SQL: `
			CREATE TABLE IF NOT EXISTS calibration_models (
				id INT AUTO_INCREMENT PRIMARY KEY,
				user_id INT,
				sensor VARCHAR(255) NOT NULL,
				degree INT NOT NULL,
				coefficients JSON NOT NULL,
				r_squared DOUBLE,
				aic DOUBLE NULL,
				bic DOUBLE NULL,
				sensor_full_scale INT NOT NULL,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				INDEX idx_sensor (sensor),
				FOREIGN KEY (user_id) REFERENCES operators(id) ON DELETE SET NULL
			)
			`,
		},
		{
			Name: "003_create_estimation_records_table",
			SQL: `
			CREATE TABLE IF NOT EXISTS estimation_records (
				id INT AUTO_INCREMENT PRIMARY KEY,
				public_id VARCHAR(32) NOT NULL UNIQUE,
				user_id INT,
				task VARCHAR(128) NOT NULL,
				status VARCHAR(16) NOT NULL,
				message TEXT,
				payload LONGTEXT,
				result TEXT,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				INDEX idx_task (task),
				INDEX idx_user_created (user_id, created_at),
				FOREIGN KEY (user_id) REFERENCES operators(id) ON DELETE SET NULL
			)
			`,
		},
	}
}

// runMigrationIfNotExists 如果迁移不存在则运行
func runMigrationIfNotExists(db *sql.DB, migration Migration) error {
	// 检查迁移是否已执行
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM migrations WHERE name = ?", migration.Name).Scan(&count)
	if err != nil {
		return err
	}

	if count > 0 {
		log.Printf("Migration %s already executed, skipping", migration.Name)
		return nil
	}

	// 执行迁移
	log.Printf("Running migration: %s", migration.Name)
	if _, err := db.Exec(migration.SQL); err != nil {
		return err
	}

	// 记录迁移已执行
	_, err = db.Exec("INSERT INTO migrations (name) VALUES (?)", migration.Name)
	return err
}
