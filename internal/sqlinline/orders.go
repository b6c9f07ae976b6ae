package sqlinline

const QInsertOrder = `--sql 8d2f6a14-3e59-4b07-9c8d-1a4e7b0f3d67
insert into orders(id, user_id, package_id, amount, credits, subject, status, trade_no, created_at, updated_at)
values ($1::text, $2::uuid, $3::text, $4::numeric, $5::int, $6::text, $7::text, '', now(), now());
`

const QSelectOrderByID = `--sql 0a5c9e38-6b74-4d21-8f0a-5c2e9b4d6f78
select id, user_id, package_id, amount, credits, subject, status, trade_no, created_at, updated_at
from orders
where id = $1::text
limit 1;
`

const QMarkOrderPaid = `--sql d7b3f5c1-2e86-4a40-b7d3-8f1c6e9a0b89
update orders
set status = 'success', trade_no = $2::text, updated_at = now()
where id = $1::text and status = 'pending'
returning id, user_id, package_id, amount, credits, subject, status, trade_no, created_at, updated_at;
`

const QListAllOrders = `--sql 3e8a0d52-9c47-4f16-a3e8-0d5b2f7c4e90
select id, user_id, package_id, amount, credits, subject, status, trade_no, created_at, updated_at
from orders
order by created_at desc;
`

const QOrderStatsWindow = `--sql 7f2c4b68-0d93-4e55-b7f2-4a8e1d6c9f01
select
  coalesce(sum(amount), 0),
  coalesce(sum(credits), 0)
from orders
where status = 'success' and updated_at >= $1::timestamptz;
`
