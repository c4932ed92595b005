package database

const schema = `
CREATE TABLE IF NOT EXISTS resellers (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    phone TEXT NOT NULL DEFAULT '',
    reset_pin TEXT NOT NULL DEFAULT '',
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS customers (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    phone TEXT NOT NULL DEFAULT '',
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS accounts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    email TEXT NOT NULL COLLATE NOCASE,
    is_active BOOLEAN DEFAULT true,
    filter_session_code BOOLEAN DEFAULT true,
    filter_device_alert BOOLEAN DEFAULT true,
    filter_home_update BOOLEAN DEFAULT true,
    filter_temp_code BOOLEAN DEFAULT true,
    pin TEXT,
    purchased_at DATETIME NOT NULL,
    expires_at DATETIME NOT NULL,
    reseller_id INTEGER REFERENCES resellers(id) ON DELETE CASCADE,
    customer_id INTEGER REFERENCES customers(id) ON DELETE CASCADE,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(email),
    CHECK (reseller_id IS NULL OR customer_id IS NULL)
);

CREATE INDEX IF NOT EXISTS idx_accounts_reseller ON accounts(reseller_id);
CREATE INDEX IF NOT EXISTS idx_accounts_customer ON accounts(customer_id);
CREATE INDEX IF NOT EXISTS idx_accounts_expires ON accounts(expires_at);
`
