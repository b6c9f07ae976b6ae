package sqlinline

const QInsertUser = `--sql 3f1c2a84-9d0b-4e52-8c1a-6b7d4e9f2a11
insert into users(id, name, email, password_hash, avatar, role, credits, country, created_at, updated_at)
values ($1::uuid, $2::text, $3::text, $4::text, $5::text, $6::text, $7::int, $8::text, now(), now());
`

const QSelectUserByID = `--sql 7b9e4c12-3a5f-4d88-b2e6-0c8f1d6a3e22
select id, name, email, password_hash, avatar, role, credits, country, created_at, updated_at
from users
where id = $1::uuid
limit 1;
`

const QSelectUserByEmail = `--sql a4d8f021-6e3b-4c97-9f12-5d2b8c4e7a33
select id, name, email, password_hash, avatar, role, credits, country, created_at, updated_at
from users
where email = $1::text
limit 1;
`

const QSetUserCredits = `--sql c2e5b9a7-1f48-4d03-8b6c-9e0a3d7f5b44
update users
set credits = $2::int, updated_at = now()
where id = $1::uuid;
`

const QDebitUserCredits = `--sql e8a1d4f6-7c29-4b50-a3d8-2f6e9b0c1d55
update users
set credits = credits - $2::int, updated_at = now()
where id = $1::uuid and credits >= $2::int
returning credits;
`

const QAddUserCredits = `--sql 1d6f8b23-4e07-4a91-bc5d-7a3e0f9d2c66
update users
set credits = credits + $2::int, updated_at = now()
where id = $1::uuid
returning credits;
`

const QCountUsersCreatedSince = `--sql 5c0a7e94-2b61-4f38-9d4a-8e1b6c3f0a77
select count(*) from users where created_at >= $1::timestamptz;
`

const QCountUsers = `--sql 9e3b5d18-6a42-4c75-b0f9-4d7c2e8a1b88
select count(*) from users;
`
