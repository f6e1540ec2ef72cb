package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: DIRECTORY
// Users, categories, weekly targets and tasks are owned by other services;
// ingestion reads them.
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
CREATE TABLE IF NOT EXISTS users (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    timezone VARCHAR(64) NOT NULL DEFAULT 'UTC',
    first_day_of_week SMALLINT NOT NULL DEFAULT 1,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT valid_first_day CHECK (first_day_of_week BETWEEN 0 AND 6)
);

CREATE TABLE IF NOT EXISTS categories (
    id BIGSERIAL PRIMARY KEY,
    key VARCHAR(120) NOT NULL UNIQUE,
    name VARCHAR(120) NOT NULL,
    order_index INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS user_category_settings (
    user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    category_id BIGINT NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
    weekly_target_points INTEGER NOT NULL DEFAULT 100,
    is_enabled BOOLEAN NOT NULL DEFAULT TRUE,
    PRIMARY KEY (user_id, category_id)
);

CREATE TABLE IF NOT EXISTS task_templates (
    id BIGSERIAL PRIMARY KEY,
    title VARCHAR(255) NOT NULL,
    category_id BIGINT NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
    default_xp INTEGER,
    default_points INTEGER,
    unit VARCHAR(30),
    is_active BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS user_tasks (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    template_id BIGINT REFERENCES task_templates(id) ON DELETE SET NULL,
    category_id BIGINT NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
    custom_title VARCHAR(255),
    custom_xp INTEGER,
    custom_points INTEGER,
    schedule_period VARCHAR(10) NOT NULL DEFAULT 'day',
    schedule_interval INTEGER NOT NULL DEFAULT 1,
    target_occurrences INTEGER NOT NULL DEFAULT 1,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    CONSTRAINT valid_schedule_period CHECK (schedule_period IN ('day', 'week', 'month')),
    CONSTRAINT valid_schedule_interval CHECK (schedule_interval >= 1),
    CONSTRAINT valid_target CHECK (target_occurrences >= 1)
);

CREATE INDEX IF NOT EXISTS idx_user_tasks_user ON user_tasks(user_id);
`

const migration001Down = `
DROP TABLE IF EXISTS user_tasks;
DROP TABLE IF EXISTS task_templates;
DROP TABLE IF EXISTS user_category_settings;
DROP TABLE IF EXISTS categories;
DROP TABLE IF EXISTS users;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: TASK LOGS AND XP LEDGER
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
CREATE TABLE IF NOT EXISTS task_logs (
    id UUID PRIMARY KEY,
    user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    user_task_id UUID REFERENCES user_tasks(id) ON DELETE SET NULL,
    category_id BIGINT NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
    occurred_at TIMESTAMPTZ NOT NULL,
    quantity NUMERIC(10, 2),
    unit VARCHAR(30),
    notes TEXT,
    xp_awarded INTEGER NOT NULL,
    points_awarded INTEGER NOT NULL,
    source VARCHAR(50) NOT NULL DEFAULT 'manual',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT valid_awards CHECK (xp_awarded >= 0 AND points_awarded >= 0)
);

CREATE INDEX IF NOT EXISTS idx_task_logs_user_occurred ON task_logs(user_id, occurred_at);
CREATE INDEX IF NOT EXISTS idx_task_logs_user_category ON task_logs(user_id, category_id, occurred_at);
CREATE INDEX IF NOT EXISTS idx_task_logs_user_task ON task_logs(user_id, user_task_id, occurred_at);

CREATE TABLE IF NOT EXISTS xp_events (
    id UUID PRIMARY KEY,
    user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    category_id BIGINT REFERENCES categories(id) ON DELETE SET NULL,
    source_type VARCHAR(20) NOT NULL,
    source_id UUID,
    delta_xp INTEGER NOT NULL,
    occurred_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_xp_events_user_occurred ON xp_events(user_id, occurred_at);
`

const migration002Down = `
DROP TABLE IF EXISTS xp_events;
DROP TABLE IF EXISTS task_logs;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: LEVELS, STREAKS, SNAPSHOTS
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
CREATE TABLE IF NOT EXISTS user_levels (
    user_id UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
    current_level INTEGER NOT NULL DEFAULT 1,
    current_xp BIGINT NOT NULL DEFAULT 0,
    xp_to_next BIGINT NOT NULL DEFAULT 100,
    last_update_at TIMESTAMPTZ,
    CONSTRAINT valid_level CHECK (current_level >= 1 AND current_xp >= 0 AND current_xp < xp_to_next)
);

CREATE TABLE IF NOT EXISTS streaks (
    user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    category_id BIGINT NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
    current_streak_days INTEGER NOT NULL DEFAULT 0,
    best_streak_days INTEGER NOT NULL DEFAULT 0,
    last_activity_date DATE,
    PRIMARY KEY (user_id, category_id),
    CONSTRAINT valid_streak CHECK (current_streak_days >= 0 AND best_streak_days >= current_streak_days)
);

CREATE TABLE IF NOT EXISTS progress_snapshots (
    user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    category_id BIGINT NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
    period VARCHAR(10) NOT NULL,
    period_start_date DATE NOT NULL,
    points_total BIGINT NOT NULL DEFAULT 0,
    xp_total BIGINT NOT NULL DEFAULT 0,
    computed_at TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (user_id, category_id, period, period_start_date),
    CONSTRAINT valid_period CHECK (period IN ('day', 'week'))
);

CREATE INDEX IF NOT EXISTS idx_snapshots_user_period ON progress_snapshots(user_id, period, period_start_date);
`

const migration003Down = `
DROP TABLE IF EXISTS progress_snapshots;
DROP TABLE IF EXISTS streaks;
DROP TABLE IF EXISTS user_levels;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 004: REWARDS
// ══════════════════════════════════════════════════════════════════════════════

const migration004Up = `
CREATE TABLE IF NOT EXISTS rewards (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    key VARCHAR(120) NOT NULL UNIQUE,
    name VARCHAR(255) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    kind VARCHAR(20) NOT NULL DEFAULT 'badge',
    condition_type VARCHAR(120) NOT NULL,
    threshold VARCHAR(40) NOT NULL DEFAULT '',
    category_key VARCHAR(120) NOT NULL DEFAULT '',
    item_key VARCHAR(120) NOT NULL DEFAULT '',
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS user_rewards (
    user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    reward_id UUID NOT NULL REFERENCES rewards(id) ON DELETE CASCADE,
    granted_at TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (user_id, reward_id)
);

CREATE TABLE IF NOT EXISTS user_cosmetics (
    user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    item_key VARCHAR(120) NOT NULL,
    acquired_at TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (user_id, item_key)
);
`

const migration004Down = `
DROP TABLE IF EXISTS user_cosmetics;
DROP TABLE IF EXISTS user_rewards;
DROP TABLE IF EXISTS rewards;
`
