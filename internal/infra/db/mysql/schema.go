package mysql

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
  id BIGINT AUTO_INCREMENT PRIMARY KEY,
  email VARCHAR(255) NOT NULL,
  password_hash VARCHAR(255) NOT NULL,
  first_name VARCHAR(100) NOT NULL DEFAULT '',
  last_name VARCHAR(100) NOT NULL DEFAULT '',
  created_at DATETIME(6) NOT NULL,
  UNIQUE KEY uq_users_email (email)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS reports (
  id BIGINT AUTO_INCREMENT PRIMARY KEY,
  user_id BIGINT NOT NULL,
  file_ref VARCHAR(512) NOT NULL,
  original_file_name VARCHAR(255) NOT NULL,
  content_type VARCHAR(255) NOT NULL DEFAULT '',
  file_size BIGINT NOT NULL DEFAULT 0,
  uploaded_at DATETIME(6) NOT NULL,
  analyzed BOOLEAN NOT NULL DEFAULT FALSE,
  KEY idx_reports_owner (user_id, uploaded_at),
  CONSTRAINT fk_reports_user FOREIGN KEY (user_id) REFERENCES users(id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS analysis_snapshots (
  id BIGINT AUTO_INCREMENT PRIMARY KEY,
  report_id BIGINT NOT NULL,
  summary MEDIUMTEXT NOT NULL,
  raw_payload JSON NOT NULL,
  created_at DATETIME(6) NOT NULL,
  KEY idx_snapshots_report (report_id, created_at),
  CONSTRAINT fk_snapshots_report FOREIGN KEY (report_id) REFERENCES reports(id) ON DELETE CASCADE
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS kpis (
  id BIGINT AUTO_INCREMENT PRIMARY KEY,
  report_id BIGINT NOT NULL,
  snapshot_id BIGINT NOT NULL,
  name TEXT NOT NULL,
  value DOUBLE NOT NULL DEFAULT 0,
  unit TEXT NOT NULL,
  category TEXT NOT NULL,
  created_at DATETIME(6) NOT NULL,
  KEY idx_kpis_report (report_id),
  CONSTRAINT fk_kpis_report FOREIGN KEY (report_id) REFERENCES reports(id) ON DELETE CASCADE,
  CONSTRAINT fk_kpis_snapshot FOREIGN KEY (snapshot_id) REFERENCES analysis_snapshots(id) ON DELETE CASCADE
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS trends (
  id BIGINT AUTO_INCREMENT PRIMARY KEY,
  report_id BIGINT NOT NULL,
  snapshot_id BIGINT NOT NULL,
  metric_name TEXT NOT NULL,
  direction VARCHAR(10) NOT NULL,
  change_percentage DOUBLE NOT NULL DEFAULT 0,
  time_frame TEXT NOT NULL,
  created_at DATETIME(6) NOT NULL,
  KEY idx_trends_report (report_id),
  CONSTRAINT chk_trends_direction CHECK (direction IN ('Up','Down','Stable')),
  CONSTRAINT fk_trends_report FOREIGN KEY (report_id) REFERENCES reports(id) ON DELETE CASCADE,
  CONSTRAINT fk_trends_snapshot FOREIGN KEY (snapshot_id) REFERENCES analysis_snapshots(id) ON DELETE CASCADE
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS action_items (
  id BIGINT AUTO_INCREMENT PRIMARY KEY,
  report_id BIGINT NOT NULL,
  snapshot_id BIGINT NOT NULL,
  title TEXT NOT NULL,
  description TEXT NOT NULL,
  priority VARCHAR(10) NOT NULL,
  category TEXT NOT NULL,
  created_at DATETIME(6) NOT NULL,
  KEY idx_action_items_report (report_id),
  CONSTRAINT chk_action_items_priority CHECK (priority IN ('High','Medium','Low')),
  CONSTRAINT fk_action_items_report FOREIGN KEY (report_id) REFERENCES reports(id) ON DELETE CASCADE,
  CONSTRAINT fk_action_items_snapshot FOREIGN KEY (snapshot_id) REFERENCES analysis_snapshots(id) ON DELETE CASCADE
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates the tables if they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, q := range schema {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("mysql migrate: %w", err)
		}
	}
	return nil
}
