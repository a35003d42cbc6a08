package sqlinline

// Postgres queries for uploaded and generated images. Every lookup is scoped
// by owner so a foreign id behaves exactly like a missing one.

const QInsertUploadedImage = `--sql e4c08551-9d93-4806-9249-ff63dbd886e7
insert into uploaded_images (uuid, user_id, original_filename, stored_filename, content_type, file_size, created_at)
values ($1::uuid, $2::bigint, $3::text, $4::text, $5::text, $6::bigint, $7::timestamptz)
returning id;
`

const QSelectUploadedImageByUUID = `--sql 655da45f-139d-409b-bcef-18beda5c4c2d
select id, uuid, user_id, original_filename, stored_filename, content_type, file_size, created_at
from uploaded_images
where uuid = $1::uuid
  and user_id = $2::bigint;
`

const QListUploadedImagesByUser = `--sql 1d66bce9-f37d-48d2-b0c7-33f22c9c3ecc
select id, uuid, user_id, original_filename, stored_filename, content_type, file_size, created_at
from uploaded_images
where user_id = $1::bigint
order by created_at desc, id desc;
`

const QInsertGeneratedImage = `--sql 6496266e-bde4-4977-887f-0455cd984395
insert into generated_images (filename, uploaded_image_id, prompt_id, user_id, generation_index, created_at)
values ($1::text, $2::bigint, $3::bigint, $4::bigint, $5::int, $6::timestamptz)
returning id;
`

const QListGeneratedImagesByUpload = `--sql 5de65f40-c80d-429a-9e36-9abd516ad525
select id, filename, uploaded_image_id, prompt_id, user_id, generation_index, created_at
from generated_images
where uploaded_image_id = $1::bigint
  and user_id = $2::bigint
order by generation_index asc, id asc;
`

const QCountGeneratedImagesSince = `--sql 6dbff4c8-8f52-48cf-bfd8-8b8d288e0e95
select count(*)
from generated_images
where user_id = $1::bigint
  and created_at >= $2::timestamptz;
`
