package sqlinline

const QInsertRecord = `--sql 2a8d6f40-9b13-4e67-8c2a-5f0d3b7e9a12
insert into generation_records(
  id,
  user_id,
  image_id,
  model,
  resolution,
  aspect_ratio,
  image_size,
  prompt,
  user_prompt,
  module_name,
  credits,
  success,
  created_at
) values (
  $1::uuid,
  $2::uuid,
  $3::text,
  $4::text,
  $5::text,
  $6::text,
  $7::text,
  $8::text,
  $9::text,
  $10::text,
  $11::int,
  $12::boolean,
  now()
);
`

const QListRecordsByUser = `--sql 6e1b9c57-0d84-4a32-bf6e-9a2c5d8f0b23
select id, user_id, image_id, model, resolution, aspect_ratio, image_size, prompt, user_prompt, module_name, credits, success, created_at
from generation_records
where user_id = $1::uuid
order by created_at desc;
`

const QListAllRecords = `--sql b3f7a2d9-5c16-4e80-a1b7-3d9f6c0e2a34
select id, user_id, image_id, model, resolution, aspect_ratio, image_size, prompt, user_prompt, module_name, credits, success, created_at
from generation_records
order by created_at desc;
`

const QRecordStatsWindow = `--sql f0c4e8b2-7a35-4d19-9e0c-6b8a1f3d5c45
select
  count(*),
  count(*) filter (where success),
  coalesce(sum(credits) filter (where success), 0)
from generation_records
where created_at >= $1::timestamptz;
`

const QRecordModuleUsage = `--sql 4b9d1e76-8f20-4c53-b4d1-0e7a2c5f8b56
select module_name, count(*)
from generation_records
where module_name <> ''
group by module_name
order by count(*) desc;
`
