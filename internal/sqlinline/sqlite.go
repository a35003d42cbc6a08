package sqlinline

// SQLite dialect of the image and prompt queries, used by the sqlx repositories.

const QLiteInsertUploadedImage = `--sql 3b1ed37b-1032-4370-8c4c-4370f548ac58
insert into uploaded_images (uuid, user_id, original_filename, stored_filename, content_type, file_size, created_at)
values (?, ?, ?, ?, ?, ?, ?);
`

const QLiteSelectUploadedImageByUUID = `--sql aa394f8f-a761-4983-9a5c-6f1693a4ef0a
select id, uuid, user_id, original_filename, stored_filename, content_type, file_size, created_at
from uploaded_images
where uuid = ?
  and user_id = ?;
`

const QLiteListUploadedImagesByUser = `--sql 1267e89e-92af-44bb-88e7-bbc1b2197b53
select id, uuid, user_id, original_filename, stored_filename, content_type, file_size, created_at
from uploaded_images
where user_id = ?
order by created_at desc, id desc;
`

const QLiteInsertGeneratedImage = `--sql 94038a58-a227-4920-896e-fb977d1b3075
insert into generated_images (filename, uploaded_image_id, prompt_id, user_id, generation_index, created_at)
values (?, ?, ?, ?, ?, ?);
`

const QLiteListGeneratedImagesByUpload = `--sql bfb0e514-d1a9-4185-8189-b4549138fc70
select id, filename, uploaded_image_id, prompt_id, user_id, generation_index, created_at
from generated_images
where uploaded_image_id = ?
  and user_id = ?
order by generation_index asc, id asc;
`

const QLiteCountGeneratedImagesSince = `--sql 9ac8e20d-a0b3-4b81-a7ba-a81e1edd6a63
select count(*)
from generated_images
where user_id = ?
  and created_at >= ?;
`

const QLiteSelectPromptByID = `--sql e4d69a2b-4547-48ac-8e83-ddd0da4c29ca
select id, title, prompt_text, active, created_at, updated_at
from prompts
where id = ?;
`

const QLiteListPromptSlots = `--sql ce30b454-bd08-4619-a391-4d65a51a349b
select id, name, prompt_text, position
from prompt_slots
where prompt_id = ?
order by position asc, id asc;
`

const QLiteInsertPrompt = `--sql 3a3af58d-4b2b-4254-90fd-ea7655b667dc
insert into prompts (title, prompt_text, active, created_at, updated_at)
values (?, ?, ?, ?, ?);
`

const QLiteInsertPromptSlot = `--sql 71967050-5da3-4f07-8f9b-029a4ac8d75c
insert into prompt_slots (prompt_id, name, prompt_text, position)
values (?, ?, ?, ?);
`
