package sqlinline

const QSelectPromptByID = `--sql 336f7661-1898-4646-8b42-5dfe0cc90de2
select id, title, prompt_text, active, created_at, updated_at
from prompts
where id = $1::bigint;
`

const QListPromptSlots = `--sql f12f3796-b312-4a09-9fba-2b72d3086486
select id, name, prompt_text, position
from prompt_slots
where prompt_id = $1::bigint
order by position asc, id asc;
`

const QInsertPrompt = `--sql 3a8fc51a-29f2-483b-a546-36767420e865
insert into prompts (title, prompt_text, active, created_at, updated_at)
values ($1::text, $2::text, $3::boolean, $4::timestamptz, $4::timestamptz)
returning id;
`

const QInsertPromptSlot = `--sql 1d2cbf6c-2f57-463f-a053-c20f439e6881
insert into prompt_slots (prompt_id, name, prompt_text, position)
values ($1::bigint, $2::text, $3::text, $4::int)
returning id;
`
