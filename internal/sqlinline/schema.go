package sqlinline

// SchemaPostgres creates the tables used by the image pipeline. Statements are
// idempotent and applied in order by infra.Migrate.
var SchemaPostgres = []string{
	`--sql b3b5fea3-1c61-4fc8-9a37-ac07dbdd6d5c
create table if not exists prompts (
    id          bigserial primary key,
    title       text not null,
    prompt_text text not null default '',
    active      boolean not null default true,
    created_at  timestamptz not null default now(),
    updated_at  timestamptz not null default now()
);`,
	`--sql 1f6500d9-a7f4-418b-a011-93d3a5d332ca
create table if not exists prompt_slots (
    id          bigserial primary key,
    prompt_id   bigint not null references prompts(id) on delete cascade,
    name        text not null,
    prompt_text text not null default '',
    position    int not null default 0
);`,
	`--sql 81b8d292-be9f-495b-b49b-f3d75079313c
create table if not exists uploaded_images (
    id                bigserial primary key,
    uuid              uuid not null unique,
    user_id           bigint not null,
    original_filename text not null,
    stored_filename   text not null unique,
    content_type      text not null,
    file_size         bigint not null,
    created_at        timestamptz not null default now()
);`,
	`--sql 6b168929-91d8-4b7c-853c-b700d4cd6b29
create index if not exists uploaded_images_user_idx on uploaded_images (user_id, created_at desc);`,
	`--sql 2e9db51d-96b1-4674-987b-64e24263c0db
create table if not exists generated_images (
    id                bigserial primary key,
    filename          text not null unique,
    uploaded_image_id bigint not null references uploaded_images(id) on delete cascade,
    prompt_id         bigint not null,
    user_id           bigint not null,
    generation_index  int not null,
    created_at        timestamptz not null default now()
);`,
	`--sql e928c3fa-3ad7-4ca8-9800-626056e9adff
create index if not exists generated_images_user_created_idx on generated_images (user_id, created_at);`,
	`--sql 4b596035-beda-45a7-9175-1254d33e29be
create table if not exists integration_tokens (
    id         uuid primary key default gen_random_uuid(),
    provider   text not null unique,
    token      text not null,
    properties jsonb not null default '{}'::jsonb,
    created_at timestamptz not null default now(),
    updated_at timestamptz not null default now()
);`,
}

// SchemaSQLite mirrors SchemaPostgres for the sqlite3 driver. Integration
// tokens are postgres only.
var SchemaSQLite = []string{
	`--sql d0c4b4b5-80c0-42a2-8d0d-0f39ca279818
create table if not exists prompts (
    id          integer primary key autoincrement,
    title       text not null,
    prompt_text text not null default '',
    active      boolean not null default 1,
    created_at  datetime not null,
    updated_at  datetime not null
);`,
	`--sql ca92147d-9d10-4ccc-bace-0a1c31d11604
create table if not exists prompt_slots (
    id          integer primary key autoincrement,
    prompt_id   integer not null references prompts(id) on delete cascade,
    name        text not null,
    prompt_text text not null default '',
    position    integer not null default 0
);`,
	`--sql ba8b4da7-ea4f-4435-8c1e-b3d650538d6e
create table if not exists uploaded_images (
    id                integer primary key autoincrement,
    uuid              text not null unique,
    user_id           integer not null,
    original_filename text not null,
    stored_filename   text not null unique,
    content_type      text not null,
    file_size         integer not null,
    created_at        datetime not null
);`,
	`--sql efe17562-6da8-4449-a891-d52fda34be9a
create index if not exists uploaded_images_user_idx on uploaded_images (user_id, created_at);`,
	`--sql 999f7225-0317-4e3b-9f0b-137a2e6789a1
create table if not exists generated_images (
    id                integer primary key autoincrement,
    filename          text not null unique,
    uploaded_image_id integer not null references uploaded_images(id) on delete cascade,
    prompt_id         integer not null,
    user_id           integer not null,
    generation_index  integer not null,
    created_at        datetime not null
);`,
	`--sql f84cd82e-6cc2-450d-ab55-35d466c6651c
create index if not exists generated_images_user_created_idx on generated_images (user_id, created_at);`,
}
