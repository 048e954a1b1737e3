package repo

// star schema DDL, idempotent by construction
var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS dim_date (
		date_id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		order_date DATE NOT NULL,
		order_year INT,
		order_month INT,
		CONSTRAINT uq_dim_date_order_date UNIQUE (order_date)
	)`,
	`CREATE TABLE IF NOT EXISTS dim_country (
		country_id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		region TEXT,
		country TEXT,
		CONSTRAINT uq_dim_country_region_country UNIQUE (region, country)
	)`,
	`CREATE TABLE IF NOT EXISTS dim_item (
		item_id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		item_type TEXT,
		CONSTRAINT uq_dim_item_item_type UNIQUE (item_type)
	)`,
	`CREATE TABLE IF NOT EXISTS dim_channel (
		channel_id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		sales_channel TEXT,
		CONSTRAINT uq_dim_channel_sales_channel UNIQUE (sales_channel)
	)`,
	`CREATE TABLE IF NOT EXISTS fact_sales (
		sales_id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		order_id BIGINT,
		date_id BIGINT REFERENCES dim_date(date_id),
		country_id BIGINT REFERENCES dim_country(country_id),
		item_id BIGINT REFERENCES dim_item(item_id),
		channel_id BIGINT REFERENCES dim_channel(channel_id),
		units_sold DOUBLE PRECISION,
		unit_price DOUBLE PRECISION,
		unit_cost DOUBLE PRECISION,
		total_revenue DOUBLE PRECISION,
		total_cost DOUBLE PRECISION,
		total_profit DOUBLE PRECISION,
		profit_per_unit DOUBLE PRECISION,
		revenue_per_unit DOUBLE PRECISION,
		profit_margin_ratio DOUBLE PRECISION,
		shipping_days INT
	)`,
	`CREATE TABLE IF NOT EXISTS etl_runs (
		run_id UUID PRIMARY KEY,
		started_at TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ NOT NULL,
		source_rows INT NOT NULL,
		rows_dropped INT NOT NULL,
		fact_rows INT NOT NULL,
		status TEXT NOT NULL
	)`,
}

// resetDML empties the star schema children-first so the FKs hold
var resetDML = []string{
	`DELETE FROM fact_sales`,
	`DELETE FROM dim_date`,
	`DELETE FROM dim_country`,
	`DELETE FROM dim_item`,
	`DELETE FROM dim_channel`,
}
